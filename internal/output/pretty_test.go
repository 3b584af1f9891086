package output

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func prettyText(t *testing.T, out *AnalysisOutput) string {
	t.Helper()
	data, err := (&PrettyFormatter{NoColor: true}).Format(out)
	require.NoError(t, err)
	return ansi.ReplaceAllString(string(data), "")
}

func TestPrettyFormatter(t *testing.T) {
	text := prettyText(t, withVerdict(sampleOutput(), "reject"))

	assert.Contains(t, text, "src/Foo.java\n")
	assert.NotContains(t, text, "src/Bar.java", "files without findings are not listed")
	assert.Regexp(t, `2:5\s+error\s+Cyclomatic Complexity is 3`, text)
	assert.Regexp(t, `3\s+warning\s+Do not call System.exit.\s+RegexpSingleline`, text)
	assert.Contains(t, text, "│         System.exit(1);")
	assert.Contains(t, text, "2 problems (1 error, 1 warning, 0 infos) in 1 file.")
	assert.Contains(t, text, "Decision: reject")
}

func TestPrettyFormatterClean(t *testing.T) {
	out := sampleOutput()
	out.Results = out.Results[1:]
	text := prettyText(t, out)
	assert.Equal(t, "No problems in 1 file.\n", text)
}

func TestPrettyFormatterWithoutSources(t *testing.T) {
	out := sampleOutput()
	out.Sources = nil
	text := prettyText(t, out)
	assert.NotContains(t, text, "│")
}

func TestPrettyFormatterHighlights(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	data, err := (&PrettyFormatter{}).Format(sampleOutput())
	require.NoError(t, err)
	assert.Regexp(t, ansi, string(data))
}
