package sarif

import (
	"fmt"

	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/rules"
	"github.com/chris-regnier/warden/internal/violation"
)

// Property keys warden sets on results, runs and rules.
const (
	PropSource      = "warden/source"
	PropSeverity    = "warden/severity"
	PropModulePath  = "warden/modulePath"
	PropInputScope  = "warden/inputScope"
	PropFingerprint = "warden/fingerprint"
	PropCategory    = "warden/category"
	PropCWE         = "warden/cwe"
)

// RuleID is the SARIF rule a violation is reported under: the module id
// when one is configured, else the module name.
func RuleID(v violation.Violation) string {
	if v.ModuleID != "" {
		return v.ModuleID
	}
	return v.Source
}

// FromViolation converts one violation found in path.
func FromViolation(path string, v violation.Violation) Result {
	return Result{
		RuleID:  RuleID(v),
		Level:   v.Severity.SARIFLevel(),
		Message: Message{Text: v.Message},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: path},
				Region:           Region{StartLine: v.Line, StartColumn: v.Column},
			},
		}},
		Properties: map[string]interface{}{
			PropSource:   v.Source,
			PropSeverity: v.Severity.String(),
		},
	}
}

// Descriptors describes every configured module. Detectors configured from
// a rule pack pick up the rule's name, explanation and remediation.
func Descriptors(mods []engine.ModuleInfo, rs []rules.Rule) []ReportingDescriptor {
	index := rules.Index(rs)
	seen := make(map[string]bool)
	var out []ReportingDescriptor
	for _, m := range mods {
		id := m.ID
		if id == "" {
			id = m.Name
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		d := ReportingDescriptor{
			ID:               id,
			Name:             m.Name,
			ShortDescription: Message{Text: m.Name},
			DefaultConfig:    &ReportingConfiguration{Level: m.Severity.SARIFLevel()},
			Properties:       map[string]interface{}{PropModulePath: m.Path},
		}
		if r, ok := index[m.ID]; ok {
			d.Name = r.Name
			d.ShortDescription = Message{Text: r.Message}
			if d.ShortDescription.Text == "" {
				d.ShortDescription.Text = fmt.Sprintf("Matches '%s'", r.Format)
			}
			if r.Explanation != "" {
				d.FullDescription = &Message{Text: r.Explanation}
			}
			if r.Remediation != "" {
				d.Help = &Message{Text: r.Remediation}
			}
			d.Properties[PropCategory] = string(r.Category)
			if len(r.CWE) > 0 {
				d.Properties[PropCWE] = r.CWE
			}
		}
		out = append(out, d)
	}
	return out
}
