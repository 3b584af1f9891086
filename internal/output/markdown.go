package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chris-regnier/warden/internal/violation"
)

// MarkdownFormatter renders the run as GitHub-Flavored Markdown suitable
// for PR comments, with one collapsible section per finding.
type MarkdownFormatter struct{}

type finding struct {
	path string
	violation.Violation
}

func severityEmoji(s violation.Severity) string {
	switch s {
	case violation.SeverityError:
		return ":red_circle:"
	case violation.SeverityWarning:
		return ":warning:"
	case violation.SeverityInfo:
		return ":information_source:"
	default:
		return ":grey_question:"
	}
}

func decisionBanner(decision string) string {
	switch decision {
	case "pass":
		return ":white_check_mark: Pass"
	case "reject":
		return ":x: Reject"
	case "review":
		return ":warning: Review Required"
	default:
		return decision
	}
}

// Format produces GFM Markdown from the run's results. The decision is
// included when a gate produced a verdict.
func (f *MarkdownFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("markdown formatter: result is required")
	}

	var all []finding
	for _, r := range result.Results {
		for _, v := range reportable(r.Violations) {
			all = append(all, finding{path: r.Path, Violation: v})
		}
	}
	// Most severe first, then by location.
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.path != b.path {
			return a.path < b.path
		}
		return a.Line < b.Line
	})
	sum := Summarize(result.Results)

	var b strings.Builder
	b.WriteString("## Warden Check Summary\n\n")
	if result.Verdict != nil {
		fmt.Fprintf(&b, "**Decision:** %s | ", decisionBanner(result.Verdict.Decision))
	}
	fmt.Fprintf(&b, "**Findings:** %d | **Files:** %d\n", sum.Violations, sum.Files)

	if len(all) == 0 {
		b.WriteString("\nNo findings detected.\n")
	} else {
		b.WriteString("\n### Findings by Severity\n")
		b.WriteString("| Severity | Count |\n")
		b.WriteString("|----------|-------|\n")
		for _, row := range []struct {
			name  string
			count int
		}{{"error", sum.Errors}, {"warning", sum.Warnings}, {"info", sum.Infos}} {
			if row.count > 0 {
				fmt.Fprintf(&b, "| %s | %d |\n", row.name, row.count)
			}
		}

		b.WriteString("\n### Findings\n\n")
		for _, f := range all {
			fmt.Fprintf(&b, "<details>\n<summary>%s <strong>%s</strong> %s: %s in <code>%s:%d</code></summary>\n\n",
				severityEmoji(f.Severity), f.Severity, f.Source, truncate(f.Message, 80), f.path, f.Line)
			fmt.Fprintf(&b, "**Check:** %s\n", f.Source)
			if f.ModuleID != "" {
				fmt.Fprintf(&b, "**Id:** %s\n", f.ModuleID)
			}
			if f.Column > 0 {
				fmt.Fprintf(&b, "**File:** `%s` line %d, column %d\n", f.path, f.Line, f.Column)
			} else {
				fmt.Fprintf(&b, "**File:** `%s` line %d\n", f.path, f.Line)
			}
			fmt.Fprintf(&b, "\n> %s\n\n</details>\n\n", f.Message)
		}
	}

	b.WriteString("---\n")
	b.WriteString("*Generated by [Warden](https://github.com/chris-regnier/warden)*\n")
	return []byte(b.String()), nil
}

// truncate shortens a string to maxLen characters, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
