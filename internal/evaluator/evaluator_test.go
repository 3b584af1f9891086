package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/violation"
)

func logWith(sevs ...violation.Severity) *sarif.Log {
	a := sarif.NewAssembler("test")
	for i, sev := range sevs {
		a.AddFile("A.java", violation.List{{Line: i + 1, Severity: sev, Message: "m", Source: "NestedDepth"}})
	}
	return a.Build()
}

func evaluate(t *testing.T, policyDir string, log *sarif.Log) string {
	t.Helper()
	e, err := NewEvaluator(policyDir)
	if err != nil {
		t.Fatal(err)
	}
	verdict, err := e.Evaluate(context.Background(), log)
	if err != nil {
		t.Fatal(err)
	}
	return verdict.Decision
}

func TestEvaluator_DefaultGate(t *testing.T) {
	tests := []struct {
		name string
		sevs []violation.Severity
		want string
	}{
		{"no results", nil, "pass"},
		{"notes only", []violation.Severity{violation.SeverityInfo}, "pass"},
		{"warning", []violation.Severity{violation.SeverityInfo, violation.SeverityWarning}, "review"},
		{"error", []violation.Severity{violation.SeverityWarning, violation.SeverityError}, "reject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluate(t, "", logWith(tt.sevs...)); got != tt.want {
				t.Errorf("decision = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluator_RelevantFindings(t *testing.T) {
	e, err := NewEvaluator("")
	if err != nil {
		t.Fatal(err)
	}
	verdict, err := e.Evaluate(context.Background(),
		logWith(violation.SeverityWarning, violation.SeverityError, violation.SeverityError))
	if err != nil {
		t.Fatal(err)
	}
	if len(verdict.RelevantFindings) != 2 {
		t.Errorf("expected 2 relevant findings, got %d", len(verdict.RelevantFindings))
	}
	if !strings.Contains(verdict.Reason, "2 errors, 1 warnings") {
		t.Errorf("unexpected reason %q", verdict.Reason)
	}
	if verdict.Metadata["errors"] != 2 {
		t.Errorf("expected errors=2 in metadata, got %v", verdict.Metadata["errors"])
	}
}

func TestEvaluator_CustomPolicy(t *testing.T) {
	dir := t.TempDir()
	policy := `package warden.gate

default decision := "pass"

decision := "reject" if count(input.runs[0].results) > 1
`
	if err := os.WriteFile(filepath.Join(dir, "strict.rego"), []byte(policy), 0644); err != nil {
		t.Fatal(err)
	}

	if got := evaluate(t, dir, logWith(violation.SeverityError)); got != "pass" {
		t.Errorf("custom policy should replace the default, got %q", got)
	}
	if got := evaluate(t, dir, logWith(violation.SeverityInfo, violation.SeverityInfo)); got != "reject" {
		t.Errorf("expected reject, got %q", got)
	}
}

func TestEvaluator_EmptyPolicyDirUsesDefault(t *testing.T) {
	dir := t.TempDir()
	if got := evaluate(t, dir, logWith(violation.SeverityError)); got != "reject" {
		t.Errorf("expected default gate, got %q", got)
	}
	if got := evaluate(t, filepath.Join(dir, "missing"), logWith()); got != "pass" {
		t.Errorf("expected default gate, got %q", got)
	}
}

func TestEvaluator_BadPolicy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.rego"), []byte("package warden.gate\n\ndecision := \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEvaluator(dir); err == nil {
		t.Fatal("expected error for unparsable policy")
	}
}
