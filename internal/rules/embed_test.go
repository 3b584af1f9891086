package rules

import (
	"testing"

	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/violation"
)

func TestDefaultRules_LoadsEmbedded(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() returned error: %v", err)
	}
	if len(rules) < 10 {
		t.Fatalf("expected at least 10 rules, got %d", len(rules))
	}
}

func TestDefaultRules_HasAllCategories(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() returned error: %v", err)
	}

	counts := map[RuleCategory]int{}
	for _, r := range rules {
		counts[r.Category]++
	}

	for _, cat := range []RuleCategory{CategorySecurity, CategoryReliability, CategoryMaintainability} {
		if counts[cat] == 0 {
			t.Errorf("expected at least 1 rule in category %q, got 0", cat)
		}
	}
}

func TestDefaultRules_UniqueIDs(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() returned error: %v", err)
	}

	seen := make(map[string]bool)
	for _, r := range rules {
		if seen[r.ID] {
			t.Errorf("duplicate rule ID: %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestDefaultRules_BuildAsModules(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() returned error: %v", err)
	}
	reg := module.NewRegistry()
	Register(reg)
	for _, cfg := range Configs(rules) {
		if _, err := reg.Build(cfg.Label(), cfg, Prepare(cfg.ID, violation.SeverityError)); err != nil {
			t.Errorf("building %s: %v", cfg.Label(), err)
		}
	}
}

func TestDefaultRules_PatternMatching(t *testing.T) {
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules() returned error: %v", err)
	}
	byID := Index(rules)

	tests := []struct {
		ruleID string
		input  string
	}{
		{"WRD-S001", `String password = "hunter22";`},
		{"WRD-S002", `MessageDigest md = MessageDigest.getInstance("MD5");`},
		{"WRD-S004", `stmt.executeQuery("SELECT * FROM t WHERE id = " + id);`},
		{"WRD-R002", `} catch (final Throwable t) {`},
		{"WRD-R003", "try {\n  run();\n} finally {\n}\n"},
		{"WRD-M001", `e.printStackTrace();`},
		{"WRD-M003", "int x = 1;   "},
	}

	reg := module.NewRegistry()
	Register(reg)
	for _, tc := range tests {
		t.Run(tc.ruleID, func(t *testing.T) {
			r, ok := byID[tc.ruleID]
			if !ok {
				t.Fatalf("rule %s not found", tc.ruleID)
			}
			cfg := r.Config()
			m, err := reg.Build(cfg.Label(), cfg, Prepare(r.ID, violation.SeverityError))
			if err != nil {
				t.Fatalf("building %s: %v", r.ID, err)
			}
			found := m.(Detector).Process(tc.input)
			if len(found) != 1 {
				t.Fatalf("rule %s: expected 1 violation for %q, got %v", r.ID, tc.input, found)
			}
			if found[0].ModuleID != r.ID || found[0].Message != r.Message {
				t.Errorf("unexpected violation %+v", found[0])
			}
		})
	}
}
