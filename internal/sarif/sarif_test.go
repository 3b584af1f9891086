package sarif

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/warden/internal/violation"
)

func TestFromViolation(t *testing.T) {
	meta := violation.Meta{Source: "NPathComplexity", Severity: violation.SeverityWarning}
	r := FromViolation("src/A.java", meta.At(12, 5, "NPath Complexity is 256 (max allowed is 200)."))

	assert.Equal(t, "NPathComplexity", r.RuleID)
	assert.Equal(t, "warning", r.Level)
	assert.Equal(t, "src/A.java", r.URI())
	assert.Equal(t, 12, r.Line())
	assert.Equal(t, 5, r.Locations[0].PhysicalLocation.Region.StartColumn)
	assert.Equal(t, "NPathComplexity", r.Properties[PropSource])
	assert.Equal(t, "warning", r.Properties[PropSeverity])
}

func TestRuleIDPrefersModuleID(t *testing.T) {
	v := violation.Violation{Source: "RegexpSingleline", ModuleID: "WRD-R001"}
	assert.Equal(t, "WRD-R001", RuleID(v))
	v.ModuleID = ""
	assert.Equal(t, "RegexpSingleline", RuleID(v))
}

func TestLevels(t *testing.T) {
	for sev, level := range map[violation.Severity]string{
		violation.SeverityInfo:    "note",
		violation.SeverityWarning: "warning",
		violation.SeverityError:   "error",
	} {
		r := FromViolation("A.java", violation.Violation{Line: 1, Severity: sev})
		assert.Equal(t, level, r.Level, sev.String())
	}
}

func TestLog_JSONShape(t *testing.T) {
	log := NewLog(ToolName, "1.2.3")
	log.Runs[0].Results = append(log.Runs[0].Results,
		FromViolation("A.java", violation.Violation{Line: 3, Message: "m", Source: "EmptyCatchBlock"}))

	data, err := json.Marshal(log)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, SchemaURI, raw["$schema"])
	assert.Equal(t, "2.1.0", raw["version"])

	run := raw["runs"].([]any)[0].(map[string]any)
	driver := run["tool"].(map[string]any)["driver"].(map[string]any)
	assert.Equal(t, "warden", driver["name"])
	assert.Equal(t, InformationURI, driver["informationUri"])

	region := run["results"].([]any)[0].(map[string]any)["locations"].([]any)[0].(map[string]any)["physicalLocation"].(map[string]any)["region"].(map[string]any)
	assert.Equal(t, float64(3), region["startLine"])
	assert.NotContains(t, region, "startColumn", "unknown column is omitted")
}
