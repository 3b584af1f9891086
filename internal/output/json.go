package output

import (
	"encoding/json"
	"fmt"

	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/store"
)

// JSONFormatter renders the run as one indented JSON document.
type JSONFormatter struct{}

type jsonReport struct {
	Verdict *store.Verdict          `json:"verdict,omitempty"`
	Summary Summary                 `json:"summary"`
	Files   []engine.Result         `json:"files"`
	Stats   *metrics.AggregateStats `json:"stats,omitempty"`
}

// Format serializes the verdict, summary, per-file violations and stats.
func (f *JSONFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("json formatter: result is required")
	}
	report := jsonReport{
		Verdict: result.Verdict,
		Summary: Summarize(result.Results),
		Files:   make([]engine.Result, 0, len(result.Results)),
		Stats:   result.Stats,
	}
	for _, r := range result.Results {
		report.Files = append(report.Files, engine.Result{Path: r.Path, Violations: reportable(r.Violations)})
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json formatter: %w", err)
	}
	return append(data, '\n'), nil
}
