package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/warden/internal/output"
)

var (
	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(4).
			Align(lipgloss.Right)

	highlightedLineStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("236"))

	locationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// contextLines is how many lines are shown on each side of a finding.
const contextLines = 5

// renderCodePane shows the source around the selected finding.
func (m Model) renderCodePane(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Code"))
	b.WriteString("\n\n")

	if cur, ok := m.current(); ok {
		b.WriteString(locationStyle.Render(fmt.Sprintf("%s:%d", cur.URI(), cur.Line())))
		b.WriteString("\n\n")
		b.WriteString(m.codeWithContext(cur.URI(), cur.Line()))
	}
	return m.paneStyle(PaneCode, width, height).Render(b.String())
}

// codeWithContext renders the lines around target with line numbers, the
// target line marked.
func (m Model) codeWithContext(uri string, target int) string {
	lines, err := m.readSource(uri)
	if err != nil {
		return fmt.Sprintf("Error reading file: %v", err)
	}
	highlight := func(s string) string { return s }
	if !m.opts.NoColor {
		highlight = output.Highlighter(uri)
	}

	start := max(target-contextLines, 1)
	end := min(target+contextLines, len(lines))

	var b strings.Builder
	for i := start; i <= end; i++ {
		num := lineNumberStyle.Render(fmt.Sprintf("%d", i))
		code := highlight(lines[i-1])
		marker := " "
		if i == target {
			marker = "▶"
			num = highlightedLineStyle.Render(num)
		}
		fmt.Fprintf(&b, "%s%s │ %s\n", marker, num, code)
	}
	return b.String()
}
