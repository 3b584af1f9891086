package module

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/spf13/cast"

	"github.com/chris-regnier/warden/internal/violation"
)

// Settings hands a module its configured properties. Each accessor leaves
// the destination untouched when the property is absent, so callers
// preload defaults. Every property read is marked as used; Finish rejects
// the ones nobody read.
type Settings struct {
	path  string
	props Properties
	used  map[string]bool
}

// NewSettings wraps the properties of cfg found at path.
func NewSettings(path string, cfg *Config) *Settings {
	return &Settings{path: path, props: cfg.Properties, used: make(map[string]bool)}
}

// Path is the module path used in error messages.
func (s *Settings) Path() string { return s.path }

// Has reports whether the property is declared, without marking it used.
func (s *Settings) Has(name string) bool {
	_, ok := s.raw(name)
	return ok
}

func (s *Settings) raw(name string) (string, bool) {
	for i := len(s.props) - 1; i >= 0; i-- {
		if s.props[i].Name == name {
			return s.props[i].Value, true
		}
	}
	return "", false
}

func (s *Settings) lookup(name string) (string, bool) {
	v, ok := s.raw(name)
	if ok {
		s.used[name] = true
	}
	return v, ok
}

// Errorf builds a ConfigError for a property of this module.
func (s *Settings) Errorf(property string, sentinel error, format string, args ...any) error {
	return &ConfigError{
		Path:     s.path,
		Property: property,
		Err:      fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}

func (s *Settings) invalid(name, value string, err error) error {
	return s.Errorf(name, ErrInvalidProperty, "%q: %v", value, err)
}

func (s *Settings) String(name string, dst *string) {
	if v, ok := s.lookup(name); ok {
		*dst = v
	}
}

func (s *Settings) Int(name string, dst *int) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	digits, err := decimal(strings.TrimSpace(v))
	if err != nil {
		return s.invalid(name, v, err)
	}
	n, err := cast.ToIntE(digits)
	if err != nil {
		return s.invalid(name, v, err)
	}
	*dst = n
	return nil
}

// decimal checks that v is a base-10 integer and drops its leading zeros,
// so cast does not read it as octal.
func decimal(v string) (string, error) {
	sign, digits := "", v
	if digits != "" && (digits[0] == '+' || digits[0] == '-') {
		sign, digits = digits[:1], digits[1:]
	}
	if digits == "" {
		return "", fmt.Errorf("not a decimal integer")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("not a decimal integer")
		}
	}
	if digits = strings.TrimLeft(digits, "0"); digits == "" {
		digits = "0"
	}
	if sign == "-" {
		return sign + digits, nil
	}
	return digits, nil
}

// NonNegative reads an integer that must not be negative.
func (s *Settings) NonNegative(name string, dst *int) error {
	v := *dst
	if err := s.Int(name, &v); err != nil {
		return err
	}
	if v < 0 {
		return s.invalid(name, fmt.Sprint(v), fmt.Errorf("must not be negative"))
	}
	*dst = v
	return nil
}

func (s *Settings) Bool(name string, dst *bool) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	b, err := cast.ToBoolE(strings.TrimSpace(v))
	if err != nil {
		return s.invalid(name, v, err)
	}
	*dst = b
	return nil
}

func (s *Settings) Duration(name string, dst *time.Duration) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	d, err := cast.ToDurationE(strings.TrimSpace(v))
	if err != nil {
		return s.invalid(name, v, err)
	}
	*dst = d
	return nil
}

// Strings splits a comma-separated property, trimming blanks and dropping
// empty items.
func (s *Settings) Strings(name string, dst *[]string) {
	v, ok := s.lookup(name)
	if !ok {
		return
	}
	*dst = SplitList(v)
}

// Pattern compiles a property with the backtracking engine the regexp
// checks use, so patterns behave the same everywhere.
func (s *Settings) Pattern(name string, opts regexp2.RegexOptions, dst **regexp2.Regexp) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	re, err := regexp2.Compile(v, opts)
	if err != nil {
		return s.invalid(name, v, err)
	}
	*dst = re
	return nil
}

// Patterns compiles a comma-separated list of patterns.
func (s *Settings) Patterns(name string, dst *[]*regexp2.Regexp) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	var out []*regexp2.Regexp
	for _, p := range SplitList(v) {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			return s.invalid(name, p, err)
		}
		out = append(out, re)
	}
	*dst = out
	return nil
}

func (s *Settings) Severity(name string, dst *violation.Severity) error {
	v, ok := s.lookup(name)
	if !ok {
		return nil
	}
	sev, err := violation.ParseSeverity(v)
	if err != nil {
		return s.invalid(name, v, err)
	}
	*dst = sev
	return nil
}

// Finish fails on the first declared property that no accessor read.
func (s *Settings) Finish() error {
	var unused []string
	for _, p := range s.props {
		if !s.used[p.Name] {
			unused = append(unused, p.Name)
		}
	}
	if len(unused) == 0 {
		return nil
	}
	sort.Strings(unused)
	return &ConfigError{Path: s.path, Property: unused[0], Err: ErrUnknownProperty}
}

// SplitList splits on commas, trims items and drops empty ones.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
