package lsp

import (
	"strings"
	"unicode/utf16"

	"github.com/chris-regnier/warden/internal/violation"
)

// DiagnosticSeverity maps to LSP severity levels
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// diagnosticSource names warden in the editor's problem list.
const diagnosticSource = "warden"

// Position is a zero-based line and UTF-16 offset.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range represents a text range in a document
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DiagnosticData carries the violation's module id back to the client.
type DiagnosticData struct {
	ModuleID string `json:"moduleId,omitempty"`
}

// Diagnostic represents an LSP diagnostic message
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code,omitempty"`
	Source   string             `json:"source,omitempty"`
	Message  string             `json:"message"`
	Data     *DiagnosticData    `json:"data,omitempty"`
}

func toSeverity(s violation.Severity) DiagnosticSeverity {
	switch s {
	case violation.SeverityError:
		return DiagnosticSeverityError
	case violation.SeverityWarning:
		return DiagnosticSeverityWarning
	default:
		return DiagnosticSeverityInformation
	}
}

// ToDiagnostics converts the violations found in text. Ignore-severity
// violations are dropped. A violation with a column spans from that column
// to the end of its line; one without spans the line's text.
func ToDiagnostics(list violation.List, text string) []Diagnostic {
	lines := strings.Split(text, "\n")
	out := make([]Diagnostic, 0, len(list))
	for _, v := range list {
		if v.Severity == violation.SeverityIgnore {
			continue
		}
		d := Diagnostic{
			Range:    lineRange(lines, v.Line, v.Column),
			Severity: toSeverity(v.Severity),
			Code:     v.Source,
			Source:   diagnosticSource,
			Message:  v.Message,
		}
		if v.ModuleID != "" {
			d.Data = &DiagnosticData{ModuleID: v.ModuleID}
		}
		out = append(out, d)
	}
	return out
}

func lineRange(lines []string, line, column int) Range {
	l := max(line-1, 0)
	if l >= len(lines) {
		return Range{Start: Position{Line: l}, End: Position{Line: l}}
	}
	text := strings.TrimRight(lines[l], "\r")
	end := utf16Len(text)
	start := utf16Len(text[:len(text)-len(strings.TrimLeft(text, " \t"))])
	if column > 0 {
		runes := []rune(text)
		start = utf16Len(string(runes[:min(column-1, len(runes))]))
	}
	if start > end {
		start = end
	}
	return Range{
		Start: Position{Line: l, Character: start},
		End:   Position{Line: l, Character: end},
	}
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
