package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/chris-regnier/warden/internal/sarif"
)

var (
	severityErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	acceptedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	rejectedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// renderDetailsPane describes the selected finding and the rule behind it.
func (m Model) renderDetailsPane(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Details"))
	b.WriteString("\n\n")

	if cur, ok := m.current(); ok {
		sev := lipgloss.NewStyle()
		switch cur.Level {
		case "error":
			sev = severityErrorStyle
		case "warning":
			sev = severityWarningStyle
		}
		b.WriteString(sev.Render(strings.ToUpper(cur.Level)))
		switch m.status[findingID(cur)] {
		case StatusAccepted:
			b.WriteString("  " + acceptedStyle.Render("✓ Accepted"))
		case StatusRejected:
			b.WriteString("  " + rejectedStyle.Render("✗ Rejected"))
		}
		b.WriteString("\n\n")

		md, err := m.renderMarkdown(m.detailsMarkdown(cur), width-4)
		if err != nil {
			md = m.detailsMarkdown(cur)
		}
		b.WriteString(md)
	}
	return m.paneStyle(PaneDetails, width, height).Render(b.String())
}

// detailsMarkdown is the finding's message, the check that reported it and
// any description the run carries for its rule.
func (m Model) detailsMarkdown(r sarif.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Rule:** `%s`\n\n", r.RuleID)
	if src, ok := r.Properties[sarif.PropSource].(string); ok && src != "" && src != r.RuleID {
		fmt.Fprintf(&b, "**Check:** %s\n\n", src)
	}
	fmt.Fprintf(&b, "%s\n\n", r.Message.Text)

	if d, ok := m.rules[r.RuleID]; ok {
		if d.FullDescription != nil && d.FullDescription.Text != "" {
			fmt.Fprintf(&b, "**Why:** %s\n\n", d.FullDescription.Text)
		} else if d.ShortDescription.Text != "" {
			fmt.Fprintf(&b, "**About:** %s\n\n", d.ShortDescription.Text)
		}
		if d.Help != nil && d.Help.Text != "" {
			fmt.Fprintf(&b, "**Fix:** %s\n\n", d.Help.Text)
		}
	}
	return b.String()
}

func (m Model) renderMarkdown(text string, width int) (string, error) {
	style := glamour.WithAutoStyle()
	if m.opts.NoColor {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(max(width, 20)))
	if err != nil {
		return "", err
	}
	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
