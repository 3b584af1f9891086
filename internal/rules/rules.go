package rules

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/violation"
)

type RuleCategory string

const (
	CategorySecurity        RuleCategory = "security"
	CategoryReliability     RuleCategory = "reliability"
	CategoryMaintainability RuleCategory = "maintainability"
)

type RuleSource string

const (
	SourceCWE        RuleSource = "CWE"
	SourceOWASP      RuleSource = "OWASP"
	SourceCheckstyle RuleSource = "Checkstyle"
	SourceCustom     RuleSource = "Custom"
)

// Rule is one rule pack entry. Each rule becomes a configured regexp
// detector; Multiline picks RegexpMultiline over RegexpSingleline.
type Rule struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Category    RuleCategory `yaml:"category,omitempty"`
	Format      string       `yaml:"format"`
	Message     string       `yaml:"message,omitempty"`
	Severity    string       `yaml:"severity"`
	IgnoreCase  bool         `yaml:"ignoreCase,omitempty"`
	Maximum     int          `yaml:"maximum,omitempty"`
	Minimum     int          `yaml:"minimum,omitempty"`
	Multiline   bool         `yaml:"multiline,omitempty"`
	Explanation string       `yaml:"explanation,omitempty"`
	Remediation string       `yaml:"remediation,omitempty"`
	Source      RuleSource   `yaml:"source,omitempty"`
	CWE         []string     `yaml:"cwe,omitempty"`
	References  []string     `yaml:"references,omitempty"`
}

type RuleFile struct {
	Rules []Rule `yaml:"rules"`
}

func ParseRuleFile(data []byte) (*RuleFile, error) {
	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	seen := make(map[string]bool)
	for i := range rf.Rules {
		r := &rf.Rules[i]
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %q (index %d): %w", r.ID, i, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate rule ID %q", r.ID)
		}
		seen[r.ID] = true
	}

	return &rf, nil
}

func validateRule(r *Rule) error {
	if r.ID == "" {
		return fmt.Errorf("missing required field: id")
	}
	if r.Format == "" {
		return fmt.Errorf("missing required field: format")
	}
	if r.Severity == "" {
		return fmt.Errorf("missing required field: severity")
	}
	if _, err := violation.ParseSeverity(r.Severity); err != nil {
		return err
	}
	if r.Minimum < 0 || r.Maximum < 0 {
		return fmt.Errorf("minimum and maximum must not be negative")
	}
	if _, err := regexp2.Compile(r.Format, r.options()); err != nil {
		return fmt.Errorf("invalid format pattern: %w", err)
	}
	return nil
}

func (r Rule) options() regexp2.RegexOptions {
	opts := regexp2.None
	if r.Multiline {
		opts |= regexp2.Multiline
	}
	if r.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	return opts
}

// ModuleName is the detector the rule configures.
func (r Rule) ModuleName() string {
	if r.Multiline {
		return "RegexpMultiline"
	}
	return "RegexpSingleline"
}

// Config turns the rule into a module config node with the rule ID as the
// module id.
func (r Rule) Config() *module.Config {
	c := &module.Config{Name: r.ModuleName(), ID: r.ID}
	c.Set("format", r.Format)
	if r.Message != "" {
		c.Set("message", r.Message)
	}
	c.Set("severity", r.Severity)
	if r.IgnoreCase {
		c.Set("ignoreCase", "true")
	}
	if r.Maximum > 0 {
		c.Set("maximum", strconv.Itoa(r.Maximum))
	}
	if r.Minimum > 0 {
		c.Set("minimum", strconv.Itoa(r.Minimum))
	}
	return c
}

// Configs converts rules to module configs in ID order.
func Configs(rules []Rule) []*module.Config {
	sorted := append([]Rule(nil), rules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	out := make([]*module.Config, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, r.Config())
	}
	return out
}

func ByCategory(rules []Rule, category RuleCategory) []Rule {
	var filtered []Rule
	for _, r := range rules {
		if r.Category == category {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func ByCWE(rules []Rule, cweID string) []Rule {
	var filtered []Rule
	for _, r := range rules {
		for _, cwe := range r.CWE {
			if cwe == cweID {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered
}

// Index maps rule IDs to rules.
func Index(rules []Rule) map[string]Rule {
	m := make(map[string]Rule, len(rules))
	for _, r := range rules {
		m[r.ID] = r
	}
	return m
}

// Register adds both detectors to r.
func Register(r *module.Registry) {
	r.Register("RegexpSingleline", func() module.Module { return NewRegexpSingleline() })
	r.Register("RegexpMultiline", func() module.Module { return NewRegexpMultiline() })
}
