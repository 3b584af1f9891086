// Package metrics records per-file check timings and results and computes
// aggregate statistics over them.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CacheResult indicates whether a cache lookup was a hit or miss
type CacheResult string

const (
	CacheHit      CacheResult = "hit"
	CacheMiss     CacheResult = "miss"
	CacheDisabled CacheResult = "disabled"
)

// FileEvent captures one Process call.
type FileEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	FilePath  string `json:"file_path"`
	FileSize  int    `json:"file_size"`
	LineCount int    `json:"line_count"`

	ParseDuration time.Duration `json:"parse_duration"`
	CheckDuration time.Duration `json:"check_duration"`
	TotalDuration time.Duration `json:"total_duration"`

	ViolationCount int `json:"violation_count"`
	// ErrorCount counts error-severity violations.
	ErrorCount  int  `json:"error_count"`
	ParseFailed bool `json:"parse_failed"`
	// BySource counts violations per emitting module.
	BySource map[string]int `json:"by_source,omitempty"`

	CacheResult CacheResult `json:"cache_result"`
	CacheKey    string      `json:"cache_key,omitempty"`

	Error string `json:"error,omitempty"`
}

// Timing tracks the phases of one file.
type Timing struct {
	startedAt   time.Time
	parsedAt    time.Time
	completedAt time.Time
}

// NewTiming creates a timing tracker started now.
func NewTiming() *Timing {
	return &Timing{startedAt: time.Now()}
}

// Parsed marks the end of parsing.
func (t *Timing) Parsed() {
	t.parsedAt = time.Now()
}

// Complete marks the file as done.
func (t *Timing) Complete() {
	t.completedAt = time.Now()
}

func (t *Timing) ParseDuration() time.Duration {
	if t.parsedAt.IsZero() {
		return 0
	}
	return t.parsedAt.Sub(t.startedAt)
}

// CheckDuration is the time spent after parsing.
func (t *Timing) CheckDuration() time.Duration {
	if t.completedAt.IsZero() || t.parsedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.parsedAt)
}

func (t *Timing) TotalDuration() time.Duration {
	if t.completedAt.IsZero() {
		return 0
	}
	return t.completedAt.Sub(t.startedAt)
}

// AggregateStats holds computed aggregate statistics
type AggregateStats struct {
	TotalFiles      int64 `json:"total_files"`
	TotalViolations int64 `json:"total_violations"`
	TotalErrors     int64 `json:"total_errors"`
	ParseFailures   int64 `json:"parse_failures"`
	Failures        int64 `json:"failures"`

	// Latency stats (in milliseconds for JSON readability)
	AvgTotalDurationMs float64 `json:"avg_total_duration_ms"`
	P50TotalDurationMs float64 `json:"p50_total_duration_ms"`
	P95TotalDurationMs float64 `json:"p95_total_duration_ms"`
	P99TotalDurationMs float64 `json:"p99_total_duration_ms"`
	MaxTotalDurationMs float64 `json:"max_total_duration_ms"`
	AvgParseDurationMs float64 `json:"avg_parse_duration_ms"`
	AvgCheckDurationMs float64 `json:"avg_check_duration_ms"`

	CacheHits    int64   `json:"cache_hits"`
	CacheMisses  int64   `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	FilesPerMinute    float64 `json:"files_per_minute"`
	ViolationsPerFile float64 `json:"violations_per_file"`

	// BySource sums violations per module over the window.
	BySource map[string]int64 `json:"by_source"`

	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// atomicCounters holds atomic counters for real-time stats
type atomicCounters struct {
	totalFiles      atomic.Int64
	totalViolations atomic.Int64
	totalErrors     atomic.Int64
	parseFailures   atomic.Int64
	failures        atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
}

// Collector collects and stores file events
type Collector struct {
	mu       sync.RWMutex
	events   []FileEvent
	counters atomicCounters

	maxEvents  int
	windowSize time.Duration

	startTime time.Time
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithMaxEvents sets the maximum number of events to retain
func WithMaxEvents(n int) CollectorOption {
	return func(c *Collector) {
		c.maxEvents = n
	}
}

// WithWindowSize sets the time window for aggregate stats
func WithWindowSize(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.windowSize = d
	}
}

// NewCollector creates a new metrics collector
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		maxEvents:  10000,
		windowSize: time.Hour,
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Record adds a file event to the collector
func (c *Collector) Record(event FileEvent) {
	c.counters.totalFiles.Add(1)
	c.counters.totalViolations.Add(int64(event.ViolationCount))
	c.counters.totalErrors.Add(int64(event.ErrorCount))
	if event.ParseFailed {
		c.counters.parseFailures.Add(1)
	}
	if event.Error != "" {
		c.counters.failures.Add(1)
	}
	switch event.CacheResult {
	case CacheHit:
		c.counters.cacheHits.Add(1)
	case CacheMiss:
		c.counters.cacheMisses.Add(1)
	}

	if c.maxEvents <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)

	// Drop the oldest tenth once over capacity
	if len(c.events) > c.maxEvents {
		prune := max(c.maxEvents/10, len(c.events)-c.maxEvents)
		c.events = c.events[prune:]
	}
}

// GetStats computes aggregate statistics from collected events
func (c *Collector) GetStats() AggregateStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	windowStart := now.Add(-c.windowSize)

	stats := AggregateStats{
		TotalFiles:      c.counters.totalFiles.Load(),
		TotalViolations: c.counters.totalViolations.Load(),
		TotalErrors:     c.counters.totalErrors.Load(),
		ParseFailures:   c.counters.parseFailures.Load(),
		Failures:        c.counters.failures.Load(),
		CacheHits:       c.counters.cacheHits.Load(),
		CacheMisses:     c.counters.cacheMisses.Load(),
		BySource:        make(map[string]int64),
		WindowStart:     windowStart,
		WindowEnd:       now,
	}

	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(lookups)
	}
	if stats.TotalFiles > 0 {
		stats.ViolationsPerFile = float64(stats.TotalViolations) / float64(stats.TotalFiles)
	}
	if elapsed := now.Sub(c.startTime).Minutes(); elapsed > 0 {
		stats.FilesPerMinute = float64(stats.TotalFiles) / elapsed
	}

	var window []FileEvent
	for _, e := range c.events {
		if e.Timestamp.After(windowStart) {
			window = append(window, e)
		}
	}
	if len(window) == 0 {
		return stats
	}

	durations := make([]float64, 0, len(window))
	var sumTotal, sumParse, sumCheck float64
	for _, e := range window {
		ms := float64(e.TotalDuration.Microseconds()) / 1000
		durations = append(durations, ms)
		sumTotal += ms
		sumParse += float64(e.ParseDuration.Microseconds()) / 1000
		sumCheck += float64(e.CheckDuration.Microseconds()) / 1000
		for src, n := range e.BySource {
			stats.BySource[src] += int64(n)
		}
	}

	n := float64(len(window))
	stats.AvgTotalDurationMs = sumTotal / n
	stats.AvgParseDurationMs = sumParse / n
	stats.AvgCheckDurationMs = sumCheck / n

	sort.Float64s(durations)
	stats.P50TotalDurationMs = percentile(durations, 0.50)
	stats.P95TotalDurationMs = percentile(durations, 0.95)
	stats.P99TotalDurationMs = percentile(durations, 0.99)
	stats.MaxTotalDurationMs = durations[len(durations)-1]

	return stats
}

// GetRecentEvents returns the most recent n events
func (c *Collector) GetRecentEvents(n int) []FileEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n > len(c.events) {
		n = len(c.events)
	}
	if n <= 0 {
		return nil
	}

	result := make([]FileEvent, n)
	copy(result, c.events[len(c.events)-n:])
	return result
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = nil
	c.counters = atomicCounters{}
	c.startTime = time.Now()
}

// percentile returns the value at the given percentile (0.0-1.0)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
