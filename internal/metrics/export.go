package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Exporter handles exporting metrics to various formats
type Exporter struct {
	collector *Collector
}

// NewExporter creates a new metrics exporter
func NewExporter(collector *Collector) *Exporter {
	return &Exporter{collector: collector}
}

// ExportJSON writes stats and recent events to a JSON file
func (e *Exporter) ExportJSON(path string) error {
	report := struct {
		GeneratedAt time.Time      `json:"generated_at"`
		Stats       AggregateStats `json:"stats"`
		Events      []FileEvent    `json:"events"`
	}{
		GeneratedAt: time.Now(),
		Stats:       e.collector.GetStats(),
		Events:      e.collector.GetRecentEvents(1000),
	}
	return writeJSON(path, report)
}

// ExportStatsJSON writes only aggregate stats to a JSON file
func (e *Exporter) ExportStatsJSON(path string) error {
	return writeJSON(path, e.collector.GetStats())
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteReport writes a human-readable report to the given writer
func (e *Exporter) WriteReport(w io.Writer) error {
	stats := e.collector.GetStats()

	fmt.Fprintf(w, "Warden Check Metrics Report\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Window: %s to %s\n\n",
		stats.WindowStart.Format(time.RFC3339),
		stats.WindowEnd.Format(time.RFC3339))

	fmt.Fprintf(w, "=== Summary ===\n")
	fmt.Fprintf(w, "Files:            %s\n", humanize.Comma(stats.TotalFiles))
	fmt.Fprintf(w, "Violations:       %s\n", humanize.Comma(stats.TotalViolations))
	fmt.Fprintf(w, "Errors:           %s\n", humanize.Comma(stats.TotalErrors))
	fmt.Fprintf(w, "Parse failures:   %s (%.1f%%)\n",
		humanize.Comma(stats.ParseFailures),
		safePercent(float64(stats.ParseFailures), float64(stats.TotalFiles)))
	fmt.Fprintf(w, "Violations/file:  %.2f\n\n", stats.ViolationsPerFile)

	fmt.Fprintf(w, "=== Latency ===\n")
	fmt.Fprintf(w, "Average:    %.2fms\n", stats.AvgTotalDurationMs)
	fmt.Fprintf(w, "P50:        %.2fms\n", stats.P50TotalDurationMs)
	fmt.Fprintf(w, "P95:        %.2fms\n", stats.P95TotalDurationMs)
	fmt.Fprintf(w, "P99:        %.2fms\n", stats.P99TotalDurationMs)
	fmt.Fprintf(w, "Max:        %.2fms\n", stats.MaxTotalDurationMs)
	fmt.Fprintf(w, "Avg parse:  %.2fms\n", stats.AvgParseDurationMs)
	fmt.Fprintf(w, "Avg checks: %.2fms\n\n", stats.AvgCheckDurationMs)

	fmt.Fprintf(w, "=== Cache ===\n")
	fmt.Fprintf(w, "Hits:     %s\n", humanize.Comma(stats.CacheHits))
	fmt.Fprintf(w, "Misses:   %s\n", humanize.Comma(stats.CacheMisses))
	fmt.Fprintf(w, "Hit Rate: %.1f%%\n\n", stats.CacheHitRate*100)

	fmt.Fprintf(w, "=== Throughput ===\n")
	fmt.Fprintf(w, "Files/min: %.2f\n", stats.FilesPerMinute)

	if len(stats.BySource) > 0 {
		sources := make([]string, 0, len(stats.BySource))
		for src := range stats.BySource {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		fmt.Fprintf(w, "\n=== By Module ===\n")
		for _, src := range sources {
			fmt.Fprintf(w, "%-32s %s\n", src, humanize.Comma(stats.BySource[src]))
		}
	}

	return nil
}

// WriteCSV writes events in CSV format for external analysis
func (e *Exporter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"id", "timestamp", "file_path", "file_size", "line_count",
		"parse_duration_ms", "check_duration_ms", "total_duration_ms",
		"violation_count", "error_count", "parse_failed", "cache_result", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, ev := range e.collector.GetRecentEvents(e.collector.maxEvents) {
		record := []string{
			ev.ID,
			ev.Timestamp.Format(time.RFC3339),
			ev.FilePath,
			strconv.Itoa(ev.FileSize),
			strconv.Itoa(ev.LineCount),
			strconv.FormatInt(ev.ParseDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.CheckDuration.Milliseconds(), 10),
			strconv.FormatInt(ev.TotalDuration.Milliseconds(), 10),
			strconv.Itoa(ev.ViolationCount),
			strconv.Itoa(ev.ErrorCount),
			strconv.FormatBool(ev.ParseFailed),
			string(ev.CacheResult),
			ev.Error,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func safePercent(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return (numerator / denominator) * 100
}
