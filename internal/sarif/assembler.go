package sarif

import (
	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/violation"
)

// Assembler builds a SARIF log from per-file engine results.
type Assembler struct {
	version     string
	results     []Result
	rules       []ReportingDescriptor
	inputScope  string
	fingerprint string
}

// NewAssembler creates a new Assembler with default values
func NewAssembler(version string) *Assembler {
	return &Assembler{version: version, results: []Result{}}
}

// AddFile adds the violations of one file. Violations at ignore severity
// are left out.
func (a *Assembler) AddFile(path string, found violation.List) *Assembler {
	for _, v := range found {
		if v.Severity == violation.SeverityIgnore {
			continue
		}
		a.results = append(a.results, FromViolation(path, v))
	}
	return a
}

// AddResults adds every file of an engine run, in order.
func (a *Assembler) AddResults(results []engine.Result) *Assembler {
	for _, r := range results {
		a.AddFile(r.Path, r.Violations)
	}
	return a
}

// AddRules adds reporting descriptors (rules) to the assembler
func (a *Assembler) AddRules(rules []ReportingDescriptor) *Assembler {
	a.rules = append(a.rules, rules...)
	return a
}

// WithInputScope records what was checked, e.g. "files" or "directory".
func (a *Assembler) WithInputScope(scope string) *Assembler {
	a.inputScope = scope
	return a
}

// WithFingerprint records the module configuration fingerprint.
func (a *Assembler) WithFingerprint(fp string) *Assembler {
	a.fingerprint = fp
	return a
}

// Build constructs the final SARIF log with all configured metadata
func (a *Assembler) Build() *Log {
	log := NewLog(ToolName, a.version)
	run := &log.Runs[0]
	run.Tool.Driver.Rules = a.rules
	run.Results = a.results

	props := map[string]interface{}{}
	if a.inputScope != "" {
		props[PropInputScope] = a.inputScope
	}
	if a.fingerprint != "" {
		props[PropFingerprint] = a.fingerprint
	}
	if len(props) > 0 {
		run.Properties = props
	}
	return log
}

// Assemble creates a SARIF log from engine results in one call.
func Assemble(results []engine.Result, rules []ReportingDescriptor, inputScope, version string) *Log {
	return NewAssembler(version).
		AddRules(rules).
		AddResults(results).
		WithInputScope(inputScope).
		Build()
}
