package output

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chris-regnier/warden/internal/sarif"
)

// SARIFFormatter renders the run as a SARIF 2.1.0 document enriched with
// GitHub Code Scanning properties (security-severity, precision, partial
// fingerprints and invocation metadata).
type SARIFFormatter struct {
	// WorkingDir overrides the invocation working directory. Empty means
	// the process working directory.
	WorkingDir string
}

// Format enriches the SARIF log in place and serializes it as indented JSON
// with a trailing newline.
func (f *SARIFFormatter) Format(result *AnalysisOutput) ([]byte, error) {
	if result == nil || result.SARIFLog == nil {
		return nil, fmt.Errorf("sarif formatter: SARIF log is required")
	}

	wd := f.WorkingDir
	if wd == "" {
		wd, _ = os.Getwd()
	}
	for i := range result.SARIFLog.Runs {
		enrichRun(&result.SARIFLog.Runs[i], wd, result.Verdict == nil || result.Verdict.Decision != "reject")
	}

	data, err := json.MarshalIndent(result.SARIFLog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sarif formatter: %w", err)
	}
	return append(data, '\n'), nil
}

func enrichRun(run *sarif.Run, wd string, successful bool) {
	if run.Tool.Driver.InformationURI == "" {
		run.Tool.Driver.InformationURI = sarif.InformationURI
	}
	run.Invocations = []sarif.Invocation{{
		WorkingDirectory:    sarif.ArtifactLocation{URI: wd},
		ExecutionSuccessful: successful,
	}}
	for j := range run.Results {
		enrichResult(&run.Results[j])
	}
}

func enrichResult(r *sarif.Result) {
	if r.PartialFingerprints == nil {
		r.PartialFingerprints = make(map[string]string)
	}
	if r.Properties == nil {
		r.Properties = make(map[string]any)
	}

	key := fmt.Sprintf("%s|%s|%d|%s", r.RuleID, r.URI(), r.Line(), r.Message.Text)
	hash := sha256.Sum256([]byte(key))
	// first 32 hex chars
	r.PartialFingerprints["primaryLocationLineHash"] = fmt.Sprintf("%x", hash[:16])

	r.Properties["security-severity"] = securitySeverity(r.Level)
	source, _ := r.Properties[sarif.PropSource].(string)
	r.Properties["precision"] = sourcePrecision(source)
}

// securitySeverity maps SARIF levels to GitHub Code Scanning security-severity scores.
func securitySeverity(level string) float64 {
	switch level {
	case "error":
		return 8.0
	case "warning":
		return 5.0
	default:
		return 2.0
	}
}

// sourcePrecision rates tree checks above text pattern matches, which can
// fire inside comments and string literals.
func sourcePrecision(source string) string {
	switch {
	case source == "":
		return "low"
	case strings.HasPrefix(source, "Regexp"):
		return "medium"
	default:
		return "high"
	}
}
