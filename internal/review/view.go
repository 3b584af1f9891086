package review

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	defaultWidth  = 120
	defaultHeight = 30
	helpText      = "n/p finding  [/] file  a accept  r reject  u clear  e/w/f filter  tab pane  q quit"
)

// View implements tea.Model
func (m Model) View() string {
	width, height := m.width, m.height
	if width == 0 || height == 0 {
		width, height = defaultWidth, defaultHeight
	}

	filtered := m.getFilteredFindings()
	accepted, rejected := m.Counts()
	title := fmt.Sprintf("Run %s: %s in %s, %d accepted, %d rejected [%s]",
		m.opts.RunID,
		english.Plural(len(filtered), "finding", ""),
		english.Plural(len(m.getFilteredFiles()), "file", ""),
		accepted, rejected, m.filter)
	header := titleStyle.Render(title)
	footer := helpStyle.Render(helpText)

	if len(filtered) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", "No findings to review.", "", footer)
	}

	// Header and footer take a line each.
	bodyHeight := max(height-2, 8)
	filesWidth := width / 4
	codeWidth := width / 2
	detailsWidth := width - filesWidth - codeWidth

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderFilesPane(filesWidth, bodyHeight),
		m.renderCodePane(codeWidth, bodyHeight),
		m.renderDetailsPane(detailsWidth, bodyHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// paneStyle is the bordered box for pane p, highlighted when active.
func (m Model) paneStyle(p Pane, width, height int) lipgloss.Style {
	color := lipgloss.Color("63")
	if m.activePane == p {
		color = lipgloss.Color("170")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Width(max(width-2, 1)).
		Height(max(height-2, 1))
}
