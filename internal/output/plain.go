package output

import (
	"fmt"
	"strings"
)

// PlainFormatter writes one canonical line per violation:
// <file>:<line>:<col>: <message>, or <file>:<line>: <message> when the
// column is unknown.
type PlainFormatter struct{}

func (f *PlainFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("plain formatter: result is required")
	}
	var b strings.Builder
	for _, r := range result.Results {
		b.WriteString(reportable(r.Violations).Render(r.Path))
	}
	return []byte(b.String()), nil
}
