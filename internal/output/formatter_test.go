package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/store"
	"github.com/chris-regnier/warden/internal/violation"
)

const fooSource = `class Foo {
    void run() {
        System.exit(1);
    }
}`

func sampleOutput() *AnalysisOutput {
	complexity := violation.Meta{Source: "CyclomaticComplexity", Severity: violation.SeverityError}
	exit := violation.Meta{Source: "RegexpSingleline", ModuleID: "no-exit", Severity: violation.SeverityWarning}
	hidden := violation.Meta{Source: "MethodLength", Severity: violation.SeverityIgnore}
	results := []engine.Result{
		{Path: "src/Foo.java", Violations: violation.List{
			complexity.At(2, 5, "Cyclomatic Complexity is 3 (max allowed is 1)."),
			exit.At(3, 0, "Do not call System.exit."),
			hidden.At(2, 5, "Method length is 3 lines (max allowed is 1)."),
		}},
		{Path: "src/Bar.java"},
	}
	return &AnalysisOutput{
		Results:  results,
		SARIFLog: sarif.Assemble(results, nil, "files", "test"),
		Sources:  map[string]string{"src/Foo.java": fooSource},
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats {
		f, err := NewFormatter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f, name)
	}

	_, err := NewFormatter("xml")
	assert.ErrorContains(t, err, `unknown output format: "xml"`)
}

func TestResolveFormat(t *testing.T) {
	assert.Equal(t, "json", ResolveFormat("json", true))
	assert.Equal(t, "pretty", ResolveFormat("", true))
	assert.Equal(t, "plain", ResolveFormat("", false))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleOutput().Results)
	assert.Equal(t, Summary{Files: 2, FilesWithIssue: 1, Violations: 2, Errors: 1, Warnings: 1}, s)
}

func TestFormattersRejectNil(t *testing.T) {
	for _, name := range Formats {
		f, err := NewFormatter(name)
		require.NoError(t, err)
		_, err = f.Format(nil)
		assert.Error(t, err, name)
	}
}

func withVerdict(out *AnalysisOutput, decision string) *AnalysisOutput {
	out.Verdict = &store.Verdict{Decision: decision, Reason: "test"}
	return out
}
