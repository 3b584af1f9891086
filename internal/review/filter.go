package review

import (
	"slices"

	"github.com/chris-regnier/warden/internal/sarif"
)

// levels returns the SARIF levels the filter keeps, or nil for all.
func (f Filter) levels() []string {
	switch f {
	case FilterErrors:
		return []string{"error"}
	case FilterWarnings:
		return []string{"error", "warning"}
	default:
		return nil
	}
}

func (f Filter) String() string {
	switch f {
	case FilterErrors:
		return "errors"
	case FilterWarnings:
		return "warnings+"
	default:
		return "all"
	}
}

// getFilteredFindings returns findings filtered by current filter setting
func (m *Model) getFilteredFindings() []sarif.Result {
	levels := m.filter.levels()
	if levels == nil {
		return m.findings
	}
	var filtered []sarif.Result
	for _, f := range m.findings {
		if slices.Contains(levels, f.Level) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// fileCount is one file with its number of filtered findings.
type fileCount struct {
	uri   string
	count int
	first int // index of the file's first filtered finding
}

// getFilteredFiles returns the files with filtered findings in order.
func (m *Model) getFilteredFiles() []fileCount {
	var files []fileCount
	for i, f := range m.getFilteredFindings() {
		if n := len(files); n > 0 && files[n-1].uri == f.URI() {
			files[n-1].count++
			continue
		}
		files = append(files, fileCount{uri: f.URI(), count: 1, first: i})
	}
	return files
}

// currentFile returns the index in getFilteredFiles of the selected
// finding's file, or -1.
func (m *Model) currentFile() int {
	cur, ok := m.current()
	if !ok {
		return -1
	}
	for i, f := range m.getFilteredFiles() {
		if f.uri == cur.URI() {
			return i
		}
	}
	return -1
}
