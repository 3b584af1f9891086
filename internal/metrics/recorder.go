package metrics

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/chris-regnier/warden/internal/violation"
)

// Recorder provides a convenient API for recording file metrics
type Recorder struct {
	collector *Collector
}

// NewRecorder creates a new metrics recorder
func NewRecorder(collector *Collector) *Recorder {
	return &Recorder{collector: collector}
}

// Collector returns the collector events are recorded into.
func (r *Recorder) Collector() *Collector { return r.collector }

// FileBuilder builds a FileEvent incrementally
type FileBuilder struct {
	recorder *Recorder
	event    FileEvent
	timing   *Timing
	mu       sync.Mutex
}

// StartFile begins recording the check of one file.
func (r *Recorder) StartFile(path, content string) *FileBuilder {
	return &FileBuilder{
		recorder: r,
		event: FileEvent{
			ID:        generateID(),
			Timestamp: time.Now(),
			FilePath:  path,
			FileSize:  len(content),
			LineCount: strings.Count(content, "\n") + 1,
		},
		timing: NewTiming(),
	}
}

// WithCacheResult records a cache lookup result
func (b *FileBuilder) WithCacheResult(result CacheResult, key string) *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.event.CacheResult = result
	b.event.CacheKey = key
	return b
}

// MarkParsed ends the parse phase. A non-nil err marks the parse as failed.
func (b *FileBuilder) MarkParsed(err error) *FileBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timing.Parsed()
	b.event.ParseFailed = err != nil
	return b
}

// Complete finishes recording and submits the event
func (b *FileBuilder) Complete(found violation.List) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timing.Complete()
	b.event.ViolationCount = len(found)
	b.event.ErrorCount = found.CountAtLeast(violation.SeverityError)
	if len(found) > 0 {
		b.event.BySource = make(map[string]int)
		for _, v := range found {
			b.event.BySource[v.Source]++
		}
	}
	b.finish()
}

// CompleteWithError finishes recording with an error
func (b *FileBuilder) CompleteWithError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timing.Complete()
	b.event.Error = err.Error()
	b.finish()
}

func (b *FileBuilder) finish() {
	b.event.ParseDuration = b.timing.ParseDuration()
	b.event.CheckDuration = b.timing.CheckDuration()
	b.event.TotalDuration = b.timing.TotalDuration()
	b.recorder.collector.Record(b.event)
}

func generateID() string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

type contextKey string

const recorderContextKey contextKey = "metrics_recorder"

// WithRecorder adds a recorder to the context
func WithRecorder(ctx context.Context, recorder *Recorder) context.Context {
	return context.WithValue(ctx, recorderContextKey, recorder)
}

// RecorderFromContext retrieves a recorder from the context
func RecorderFromContext(ctx context.Context) *Recorder {
	if r, ok := ctx.Value(recorderContextKey).(*Recorder); ok {
		return r
	}
	return nil
}

// NoOpRecorder returns a recorder that keeps counters but no events
func NoOpRecorder() *Recorder {
	return &Recorder{collector: NewCollector(WithMaxEvents(0))}
}
