// Package review is the terminal UI for triaging the findings of a stored
// check run. Findings are accepted or rejected one at a time and the
// decisions saved next to the run.
package review

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/chris-regnier/warden/internal/sarif"
)

// Pane represents which pane is currently active
type Pane int

const (
	PaneFiles Pane = iota
	PaneCode
	PaneDetails
)

// Filter represents the severity filter
type Filter int

const (
	FilterAll Filter = iota
	FilterErrors
	FilterWarnings
)

// Options configure a review session.
type Options struct {
	RunID string
	// Root resolves relative artifact URIs when reading source.
	Root string
	// StatePath is where triage is saved on quit. Empty disables saving.
	StatePath string
	Reviewer  string
	NoColor   bool
}

// Model is the bubbletea model for the review TUI
type Model struct {
	opts     Options
	findings []sarif.Result
	rules    map[string]sarif.ReportingDescriptor

	// currentFinding indexes the filtered findings.
	currentFinding int
	activePane     Pane
	filter         Filter

	status map[string]Status

	sources map[string][]string
	saveErr error

	width  int
	height int
}

// NewModel creates a model over the first run of log, restoring any triage
// already saved at opts.StatePath.
func NewModel(log *sarif.Log, opts Options) *Model {
	m := &Model{
		opts:       opts,
		rules:      make(map[string]sarif.ReportingDescriptor),
		activePane: PaneFiles,
		filter:     FilterAll,
		status:     make(map[string]Status),
		sources:    make(map[string][]string),
	}
	for _, r := range log.Results() {
		if r.URI() != "" {
			m.findings = append(m.findings, r)
		}
	}
	slices.SortStableFunc(m.findings, func(a, b sarif.Result) int {
		if c := cmp.Compare(a.URI(), b.URI()); c != 0 {
			return c
		}
		return cmp.Compare(a.Line(), b.Line())
	})
	if log != nil && len(log.Runs) > 0 {
		for _, d := range log.Runs[0].Tool.Driver.Rules {
			m.rules[d.ID] = d
		}
	}
	if opts.StatePath != "" {
		if state, err := LoadReviewState(opts.StatePath); err == nil {
			for id, f := range state.Findings {
				m.status[id] = f.Status
			}
		}
	}
	return m
}

// findingID identifies a finding across sessions by rule and position.
func findingID(r sarif.Result) string {
	return r.RuleID + ":" + r.URI() + ":" + strconv.Itoa(r.Line())
}

// current returns the selected finding of the filtered list.
func (m *Model) current() (sarif.Result, bool) {
	filtered := m.getFilteredFindings()
	if m.currentFinding < 0 || m.currentFinding >= len(filtered) {
		return sarif.Result{}, false
	}
	return filtered[m.currentFinding], true
}

// readSource returns the lines of the file at uri, reading it at most once.
func (m *Model) readSource(uri string) ([]string, error) {
	if lines, ok := m.sources[uri]; ok {
		return lines, nil
	}
	path := uri
	if !filepath.IsAbs(path) && m.opts.Root != "" {
		path = filepath.Join(m.opts.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	m.sources[uri] = lines
	return lines, nil
}
