// Package output renders check runs for people and tools: plain
// conformance lines, JSON, SARIF, Markdown and a colored terminal view.
package output

import (
	"fmt"

	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/store"
	"github.com/chris-regnier/warden/internal/violation"
)

// Formatter renders an AnalysisOutput into a byte slice in a specific format.
type Formatter interface {
	Format(result *AnalysisOutput) ([]byte, error)
}

// AnalysisOutput holds everything a run produced. Only Results is
// required; the other fields are filled in when the run computed them.
type AnalysisOutput struct {
	Results  []engine.Result
	SARIFLog *sarif.Log
	Verdict  *store.Verdict
	Stats    *metrics.AggregateStats
	// Sources maps a result path to its text, for source excerpts.
	Sources map[string]string
}

// Formats lists the supported format names.
var Formats = []string{"plain", "json", "sarif", "markdown", "pretty"}

// ResolveFormat determines the output format to use. If flagValue is non-empty,
// it is returned directly. Otherwise, "pretty" is returned for TTY output and
// "plain" for non-TTY (piped) output.
func ResolveFormat(flagValue string, stdoutIsTTY bool) string {
	if flagValue != "" {
		return flagValue
	}
	if stdoutIsTTY {
		return "pretty"
	}
	return "plain"
}

// NewFormatter returns a Formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "plain":
		return &PlainFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "pretty":
		return &PrettyFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: plain, json, sarif, markdown, pretty)", format)
	}
}

// Summary counts the reportable violations of a run.
type Summary struct {
	Files          int `json:"files"`
	FilesWithIssue int `json:"files_with_violations"`
	Violations     int `json:"violations"`
	Errors         int `json:"errors"`
	Warnings       int `json:"warnings"`
	Infos          int `json:"infos"`
}

// Summarize counts violations by severity, leaving out ignored ones.
func Summarize(results []engine.Result) Summary {
	s := Summary{Files: len(results)}
	for _, r := range results {
		n := 0
		for _, v := range r.Violations {
			switch v.Severity {
			case violation.SeverityIgnore:
				continue
			case violation.SeverityError:
				s.Errors++
			case violation.SeverityWarning:
				s.Warnings++
			case violation.SeverityInfo:
				s.Infos++
			}
			n++
		}
		s.Violations += n
		if n > 0 {
			s.FilesWithIssue++
		}
	}
	return s
}

// reportable drops ignore-severity violations.
func reportable(l violation.List) violation.List {
	out := make(violation.List, 0, len(l))
	for _, v := range l {
		if v.Severity != violation.SeverityIgnore {
			out = append(out, v)
		}
	}
	return out
}
