package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	fileItemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedFileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	fileCountStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// renderFilesPane lists the files with findings and their counts.
func (m Model) renderFilesPane(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Files"))
	b.WriteString("\n\n")

	selected := m.currentFile()
	for i, f := range m.getFilteredFiles() {
		count := fileCountStyle.Render(fmt.Sprintf("(%d)", f.count))
		if i == selected {
			b.WriteString(selectedFileStyle.Render("▸ " + f.uri))
		} else {
			b.WriteString(fileItemStyle.Render(f.uri))
		}
		b.WriteString(" " + count + "\n")
	}
	return m.paneStyle(PaneFiles, width, height).Render(b.String())
}
