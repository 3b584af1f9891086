// Package violation holds the positioned findings produced by checks.
package violation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Severity ranks a violation.
type Severity int

const (
	SeverityIgnore Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityIgnore:
		return "ignore"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// SARIFLevel maps the severity onto a SARIF result level.
func (s Severity) SARIFLevel() string {
	switch s {
	case SeverityIgnore:
		return "none"
	case SeverityInfo:
		return "note"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

// ParseSeverity accepts the names produced by String, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignore":
		return SeverityIgnore, nil
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityError, fmt.Errorf("unknown severity %q (want ignore, info, warning or error)", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Violation is one rule breach. Column is 1-based; 0 means unknown.
type Violation struct {
	Line     int      `json:"line"`
	Column   int      `json:"column,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Source   string   `json:"source"`
	ModuleID string   `json:"module_id,omitempty"`
}

// Render formats v the way conformance output expects.
func (v Violation) Render(file string) string {
	if v.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", file, v.Line, v.Column, v.Message)
	}
	return fmt.Sprintf("%s:%d: %s", file, v.Line, v.Message)
}

// Compare orders by line, then column. Ties compare equal so that stable
// sorting keeps emission order.
func Compare(a, b Violation) int {
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	return cmp.Compare(a.Column, b.Column)
}

// Meta identifies the module that emits a violation.
type Meta struct {
	Source   string
	ModuleID string
	Severity Severity
}

// At builds a violation carrying the module identity.
func (m Meta) At(line, column int, msg string) Violation {
	return Violation{
		Line:     line,
		Column:   column,
		Severity: m.Severity,
		Message:  msg,
		Source:   m.Source,
		ModuleID: m.ModuleID,
	}
}

// List is a per-file ordered collection of violations.
type List []Violation

// Normalize sorts the list stably by position and drops exact duplicates.
func (l List) Normalize() List {
	sorted := slices.Clone(l)
	slices.SortStableFunc(sorted, Compare)
	out := sorted[:0]
	seen := make(map[Violation]bool)
	for i, v := range sorted {
		if i > 0 && Compare(sorted[i-1], v) != 0 {
			clear(seen)
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Merge concatenates lists and normalizes the result.
func Merge(lists ...List) List {
	var all List
	for _, l := range lists {
		all = append(all, l...)
	}
	return all.Normalize()
}

// CountAtLeast reports how many violations have severity >= min.
func (l List) CountAtLeast(min Severity) int {
	n := 0
	for _, v := range l {
		if v.Severity >= min {
			n++
		}
	}
	return n
}

// Render formats every violation of the list on its own line.
func (l List) Render(file string) string {
	var b strings.Builder
	for _, v := range l {
		b.WriteString(v.Render(file))
		b.WriteByte('\n')
	}
	return b.String()
}
