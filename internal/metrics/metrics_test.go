package metrics

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chris-regnier/warden/internal/violation"
)

func TestNewTiming(t *testing.T) {
	timing := NewTiming()
	if timing.startedAt.IsZero() {
		t.Error("startedAt should be set")
	}
	if timing.ParseDuration() != 0 || timing.TotalDuration() != 0 {
		t.Error("durations should be zero before the phases end")
	}
}

func TestTiming_Phases(t *testing.T) {
	timing := NewTiming()
	time.Sleep(5 * time.Millisecond)
	timing.Parsed()
	time.Sleep(5 * time.Millisecond)
	timing.Complete()

	if timing.ParseDuration() < 5*time.Millisecond {
		t.Errorf("parse duration should be at least 5ms, got %v", timing.ParseDuration())
	}
	if timing.CheckDuration() < 5*time.Millisecond {
		t.Errorf("check duration should be at least 5ms, got %v", timing.CheckDuration())
	}
	if timing.TotalDuration() < timing.ParseDuration()+timing.CheckDuration() {
		t.Error("total should cover both phases")
	}
}

func TestCollector_Record(t *testing.T) {
	c := NewCollector()

	c.Record(FileEvent{
		ID:             "test-1",
		Timestamp:      time.Now(),
		ViolationCount: 5,
		ErrorCount:     2,
		ParseFailed:    true,
		CacheResult:    CacheMiss,
	})

	if c.counters.totalFiles.Load() != 1 {
		t.Error("total files should be 1")
	}
	if c.counters.totalViolations.Load() != 5 {
		t.Error("total violations should be 5")
	}
	if c.counters.totalErrors.Load() != 2 {
		t.Error("total errors should be 2")
	}
	if c.counters.parseFailures.Load() != 1 {
		t.Error("parse failures should be 1")
	}
	if c.counters.cacheMisses.Load() != 1 {
		t.Error("cache misses should be 1")
	}
}

func TestCollector_RecordConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	n := 100
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(FileEvent{Timestamp: time.Now(), ViolationCount: 1, CacheResult: CacheHit})
		}()
	}
	wg.Wait()

	if c.counters.totalFiles.Load() != int64(n) {
		t.Errorf("expected %d files, got %d", n, c.counters.totalFiles.Load())
	}
}

func TestCollector_GetStats(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 10; i++ {
		c.Record(FileEvent{
			Timestamp:      time.Now(),
			ParseDuration:  20 * time.Millisecond,
			CheckDuration:  80 * time.Millisecond,
			TotalDuration:  100 * time.Millisecond,
			ViolationCount: 2,
			BySource:       map[string]int{"CyclomaticComplexity": 1, "RegexpSingleline": 1},
			CacheResult:    CacheMiss,
		})
	}
	for i := 0; i < 5; i++ {
		c.Record(FileEvent{Timestamp: time.Now(), CacheResult: CacheHit})
	}

	stats := c.GetStats()

	if stats.TotalFiles != 15 {
		t.Errorf("expected 15 files, got %d", stats.TotalFiles)
	}
	if stats.CacheHits != 5 || stats.CacheMisses != 10 {
		t.Errorf("expected 5 hits and 10 misses, got %d and %d", stats.CacheHits, stats.CacheMisses)
	}
	expectedHitRate := 5.0 / 15.0
	if stats.CacheHitRate < expectedHitRate-0.01 || stats.CacheHitRate > expectedHitRate+0.01 {
		t.Errorf("expected cache hit rate ~%.3f, got %.3f", expectedHitRate, stats.CacheHitRate)
	}
	if stats.MaxTotalDurationMs != 100 {
		t.Errorf("expected max 100ms, got %.1f", stats.MaxTotalDurationMs)
	}
	if stats.BySource["CyclomaticComplexity"] != 10 {
		t.Errorf("expected 10 CyclomaticComplexity violations, got %d", stats.BySource["CyclomaticComplexity"])
	}
}

func TestCollector_GetRecentEvents(t *testing.T) {
	c := NewCollector()

	for i := 0; i < 20; i++ {
		c.Record(FileEvent{ID: string(rune('a' + i)), Timestamp: time.Now()})
	}

	if events := c.GetRecentEvents(5); len(events) != 5 {
		t.Errorf("expected 5 events, got %d", len(events))
	}
	if events := c.GetRecentEvents(100); len(events) != 20 {
		t.Errorf("expected 20 events, got %d", len(events))
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()

	c.Record(FileEvent{ID: "test", ViolationCount: 5})
	c.Reset()

	if c.counters.totalFiles.Load() != 0 {
		t.Error("counters should be reset")
	}
	if events := c.GetRecentEvents(10); len(events) != 0 {
		t.Error("events should be cleared")
	}
}

func TestCollector_Pruning(t *testing.T) {
	c := NewCollector(WithMaxEvents(100))

	for i := 0; i < 150; i++ {
		c.Record(FileEvent{Timestamp: time.Now()})
	}

	c.mu.RLock()
	eventCount := len(c.events)
	c.mu.RUnlock()

	if eventCount > 100 {
		t.Errorf("events should be pruned, got %d", eventCount)
	}
}

func TestFileBuilder_Complete(t *testing.T) {
	c := NewCollector()
	r := NewRecorder(c)

	b := r.StartFile("A.java", "class A {\n}\n")
	b.WithCacheResult(CacheMiss, "abc")
	b.MarkParsed(nil)
	b.Complete(violation.List{
		{Line: 1, Severity: violation.SeverityError, Source: "JavaNCSS"},
		{Line: 2, Severity: violation.SeverityWarning, Source: "RegexpSingleline"},
		{Line: 2, Severity: violation.SeverityError, Source: "RegexpSingleline"},
	})

	events := c.GetRecentEvents(1)
	if len(events) != 1 {
		t.Fatal("expected 1 event")
	}
	e := events[0]
	if e.ViolationCount != 3 || e.ErrorCount != 2 {
		t.Errorf("expected 3 violations and 2 errors, got %d and %d", e.ViolationCount, e.ErrorCount)
	}
	if e.LineCount != 3 {
		t.Errorf("expected 3 lines, got %d", e.LineCount)
	}
	if e.BySource["RegexpSingleline"] != 2 {
		t.Errorf("expected 2 RegexpSingleline violations, got %d", e.BySource["RegexpSingleline"])
	}
	if e.CacheKey != "abc" || e.ID == "" {
		t.Errorf("unexpected event identity: %+v", e)
	}
}

func TestFileBuilder_ParseFailureAndError(t *testing.T) {
	c := NewCollector()
	r := NewRecorder(c)

	r.StartFile("Bad.java", "class {").MarkParsed(errors.New("syntax")).Complete(violation.List{{Line: 1}})
	r.StartFile("Gone.java", "").CompleteWithError(os.ErrNotExist)

	stats := c.GetStats()
	if stats.ParseFailures != 1 {
		t.Errorf("expected 1 parse failure, got %d", stats.ParseFailures)
	}
	if stats.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", stats.Failures)
	}
}

func TestRecorderContext(t *testing.T) {
	r := NewRecorder(NewCollector())
	ctx := WithRecorder(t.Context(), r)
	if RecorderFromContext(ctx) != r {
		t.Error("expected recorder from context")
	}
	if RecorderFromContext(t.Context()) != nil {
		t.Error("expected nil recorder from bare context")
	}
}

func TestExporter_WriteReport(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 5; i++ {
		c.Record(FileEvent{
			Timestamp:      time.Now(),
			TotalDuration:  100 * time.Millisecond,
			ViolationCount: 2000,
			BySource:       map[string]int{"NPathComplexity": 2000},
			CacheResult:    CacheMiss,
		})
	}

	var buf bytes.Buffer
	if err := NewExporter(c).WriteReport(&buf); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"Files:", "Latency", "10,000", "NPathComplexity"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("report should contain %q", want)
		}
	}
}

func TestExporter_ExportJSON(t *testing.T) {
	c := NewCollector()
	c.Record(FileEvent{ID: "test", Timestamp: time.Now(), ViolationCount: 3})

	path := filepath.Join(t.TempDir(), "nested", "metrics.json")
	if err := NewExporter(c).ExportJSON(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var report struct {
		Stats  AggregateStats `json:"stats"`
		Events []FileEvent    `json:"events"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Events) != 1 || report.Stats.TotalViolations != 3 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestExporter_WriteCSV(t *testing.T) {
	c := NewCollector()
	c.Record(FileEvent{
		ID:          "test-1",
		Timestamp:   time.Now(),
		FilePath:    "src/a,b.java",
		CacheResult: CacheHit,
	})

	var buf bytes.Buffer
	if err := NewExporter(c).WriteCSV(&buf); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"id,timestamp,file_path", "test-1", `"src/a,b.java"`, "hit"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("CSV should contain %q", want)
		}
	}
}

func TestNoOpRecorder(t *testing.T) {
	r := NoOpRecorder()

	r.StartFile("A.java", "").Complete(nil)

	if r.collector.maxEvents != 0 {
		t.Error("NoOp collector should have 0 max events")
	}
	if len(r.collector.GetRecentEvents(10)) != 0 {
		t.Error("NoOp collector should keep no events")
	}
}
