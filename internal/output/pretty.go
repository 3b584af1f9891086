package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/chris-regnier/warden/internal/violation"
)

var (
	fileHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	positionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(9).
			Align(lipgloss.Right)

	severityErrorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("196"))

	severityWarningStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	severityInfoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	excerptGutterStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63"))

	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))
)

// PrettyFormatter renders the run as colored terminal output grouped by
// file. When the file text is known each finding shows its source line.
type PrettyFormatter struct {
	// NoColor disables syntax highlighting of excerpts. NO_COLOR in the
	// environment has the same effect.
	NoColor bool
}

// Format produces pretty terminal output.
func (f *PrettyFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("pretty formatter: result is required")
	}
	color := !f.NoColor && os.Getenv("NO_COLOR") == ""

	var b strings.Builder
	for _, r := range result.Results {
		found := reportable(r.Violations)
		if len(found) == 0 {
			continue
		}
		b.WriteString(fileHeaderStyle.Render(r.Path))
		b.WriteString("\n")

		var lines []string
		if text, ok := result.Sources[r.Path]; ok {
			lines = strings.Split(text, "\n")
		}
		highlight := Highlighter(r.Path)

		for _, v := range found {
			pos := fmt.Sprintf("%d", v.Line)
			if v.Column > 0 {
				pos = fmt.Sprintf("%d:%d", v.Line, v.Column)
			}
			fmt.Fprintf(&b, "%s  %s  %s  %s\n",
				positionStyle.Render(pos),
				severityLabel(v.Severity),
				v.Message,
				sourceStyle.Render(v.Source))

			if v.Line >= 1 && v.Line <= len(lines) {
				code := strings.TrimRight(lines[v.Line-1], "\r")
				if color {
					code = highlight(code)
				}
				fmt.Fprintf(&b, "%s %s\n", excerptGutterStyle.Render(strings.Repeat(" ", 9)+" │"), code)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(summaryLine(Summarize(result.Results)))
	b.WriteString("\n")
	if result.Verdict != nil {
		fmt.Fprintf(&b, "Decision: %s\n", decisionLabel(result.Verdict.Decision))
	}
	return []byte(b.String()), nil
}

func severityLabel(s violation.Severity) string {
	label := fmt.Sprintf("%-7s", s)
	switch s {
	case violation.SeverityError:
		return severityErrorStyle.Render(label)
	case violation.SeverityWarning:
		return severityWarningStyle.Render(label)
	default:
		return severityInfoStyle.Render(label)
	}
}

func decisionLabel(decision string) string {
	switch decision {
	case "pass":
		return passStyle.Render(decision)
	case "reject":
		return severityErrorStyle.Render(decision)
	default:
		return severityWarningStyle.Render(decision)
	}
}

func summaryLine(s Summary) string {
	if s.Violations == 0 {
		return passStyle.Render(fmt.Sprintf("No problems in %s.",
			english.Plural(s.Files, "file", "")))
	}
	return fmt.Sprintf("%s %s (%s, %s, %s) in %s.",
		humanize.Comma(int64(s.Violations)),
		english.PluralWord(s.Violations, "problem", ""),
		english.Plural(s.Errors, "error", ""),
		english.Plural(s.Warnings, "warning", ""),
		english.Plural(s.Infos, "info", "infos"),
		english.Plural(s.FilesWithIssue, "file", ""))
}

// Highlighter returns a function that colors single lines of code in the
// language chroma guesses from path. Lines it cannot tokenize come back
// unchanged.
func Highlighter(path string) func(line string) string {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return func(line string) string {
		if hl, err := highlightLine(line, lexer); err == nil {
			return hl
		}
		return line
	}
}

func highlightLine(line string, lexer chroma.Lexer) (string, error) {
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	if err := formatters.TTY16m.Format(&b, style, iterator); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
