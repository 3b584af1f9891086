package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/warden/internal/sarif"
)

func TestSARIFFormatterEnriches(t *testing.T) {
	out := sampleOutput()
	data, err := (&SARIFFormatter{WorkingDir: "/work"}).Format(out)
	require.NoError(t, err)

	var log sarif.Log
	require.NoError(t, json.Unmarshal(data, &log))
	require.Len(t, log.Runs, 1)
	run := log.Runs[0]

	assert.Equal(t, sarif.InformationURI, run.Tool.Driver.InformationURI)
	require.Len(t, run.Invocations, 1)
	assert.Equal(t, "/work", run.Invocations[0].WorkingDirectory.URI)
	assert.True(t, run.Invocations[0].ExecutionSuccessful)

	require.Len(t, run.Results, 2)
	byRule := map[string]sarif.Result{}
	for _, r := range run.Results {
		byRule[r.RuleID] = r
		assert.Len(t, r.PartialFingerprints["primaryLocationLineHash"], 32)
	}
	assert.EqualValues(t, 8.0, byRule["CyclomaticComplexity"].Properties["security-severity"])
	assert.Equal(t, "high", byRule["CyclomaticComplexity"].Properties["precision"])
	assert.EqualValues(t, 5.0, byRule["no-exit"].Properties["security-severity"])
	assert.Equal(t, "medium", byRule["no-exit"].Properties["precision"])
}

func TestSARIFFormatterRejectedRun(t *testing.T) {
	out := withVerdict(sampleOutput(), "reject")
	_, err := (&SARIFFormatter{WorkingDir: "/work"}).Format(out)
	require.NoError(t, err)
	assert.False(t, out.SARIFLog.Runs[0].Invocations[0].ExecutionSuccessful)
}

func TestSARIFFormatterStableFingerprints(t *testing.T) {
	a, err := (&SARIFFormatter{WorkingDir: "/w"}).Format(sampleOutput())
	require.NoError(t, err)
	b, err := (&SARIFFormatter{WorkingDir: "/w"}).Format(sampleOutput())
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestSARIFFormatterRequiresLog(t *testing.T) {
	_, err := (&SARIFFormatter{}).Format(&AnalysisOutput{})
	assert.ErrorContains(t, err, "SARIF log is required")
}

func TestSourcePrecision(t *testing.T) {
	assert.Equal(t, "medium", sourcePrecision("RegexpMultiline"))
	assert.Equal(t, "high", sourcePrecision("NPathComplexity"))
	assert.Equal(t, "low", sourcePrecision(""))
}
