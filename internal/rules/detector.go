// Package rules scans raw file text with regular expressions and loads the
// YAML rule packs that configure those scans.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/violation"
)

const (
	defaultErrorLimit   = 100
	defaultMatchTimeout = time.Second

	limitSuffix = " (error limit exceeded, stopping)"
)

// Detector is a file-level check that works on text instead of a tree.
type Detector interface {
	module.Module

	Name() string
	// Meta is the identity stamped on reported violations.
	Meta() violation.Meta
	// Process scans one file and returns what it found. All per-file
	// state is reset on entry.
	Process(text string) violation.List

	base() *detector
}

// Options are the properties both detectors share.
type Options struct {
	Format             string
	Message            string
	IgnoreCase         bool
	Minimum            int
	Maximum            int
	ErrorLimit         int
	SuppressDuplicates bool
	MatchTimeout       time.Duration
}

func defaultOptions() Options {
	return Options{ErrorLimit: defaultErrorLimit, MatchTimeout: defaultMatchTimeout}
}

// detector holds the compiled pattern and the per-file counters. The
// counters are reset at the start of every Process call.
type detector struct {
	Options

	meta violation.Meta
	re   *regexp2.Regexp

	matches int
	errors  int
	seen    map[string]bool
	found   violation.List
}

func (d *detector) base() *detector { return d }

// Meta returns the identity stamped on reported violations.
func (d *detector) Meta() violation.Meta { return d.meta }

func (d *detector) configure(s *module.Settings, extra regexp2.RegexOptions) error {
	s.String("format", &d.Format)
	s.String("message", &d.Message)
	if err := s.Bool("ignoreCase", &d.IgnoreCase); err != nil {
		return err
	}
	if err := s.NonNegative("minimum", &d.Minimum); err != nil {
		return err
	}
	if err := s.NonNegative("maximum", &d.Maximum); err != nil {
		return err
	}
	if err := s.Int("errorLimit", &d.ErrorLimit); err != nil {
		return err
	}
	if d.ErrorLimit < 1 {
		return s.Errorf("errorLimit", module.ErrInvalidProperty, "must be at least 1, got %d", d.ErrorLimit)
	}
	if err := s.Bool("suppressDuplicates", &d.SuppressDuplicates); err != nil {
		return err
	}
	if err := s.Duration("matchTimeout", &d.MatchTimeout); err != nil {
		return err
	}
	if err := d.compile(extra); err != nil {
		return s.Errorf("format", module.ErrInvalidProperty, "%q: %v", d.Format, err)
	}
	return nil
}

// compile builds the pattern from Format. An empty format leaves re nil;
// Process reports that instead of failing configuration.
func (d *detector) compile(extra regexp2.RegexOptions) error {
	d.re = nil
	if d.Format == "" {
		return nil
	}
	opts := extra
	if d.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(d.Format, opts)
	if err != nil {
		return err
	}
	if d.MatchTimeout > 0 {
		re.MatchTimeout = d.MatchTimeout
	}
	d.re = re
	return nil
}

func (d *detector) reset() {
	d.matches = 0
	d.errors = 0
	d.seen = make(map[string]bool)
	d.found = nil
}

func (d *detector) log(line int, msg string) {
	d.found = append(d.found, d.meta.At(line, 0, msg))
}

// match counts one occurrence at line and reports it when it goes over the
// maximum. It returns false once the error limit stops the scan.
func (d *detector) match(line int, text string) bool {
	if d.SuppressDuplicates {
		if d.seen[text] {
			return true
		}
		d.seen[text] = true
	}
	d.matches++
	if d.matches <= d.Maximum {
		return true
	}
	d.errors++
	msg := d.Message
	if msg == "" {
		msg = fmt.Sprintf("Line matches the illegal pattern '%s'.", d.Format)
	}
	if d.errors >= d.ErrorLimit {
		d.log(line, msg+limitSuffix)
		return false
	}
	d.log(line, msg)
	return true
}

// fault reports a match that could not complete. Nothing else is reported
// for the file afterwards.
func (d *detector) fault(cause string) {
	d.found = nil
	d.log(1, fmt.Sprintf("Found the pattern '%s' but unable to check it: %s.",
		d.Format, strings.TrimSuffix(cause, ".")))
}

func (d *detector) timeoutCause() string {
	return fmt.Sprintf("match timed out after %s", d.MatchTimeout)
}

// finish applies the minimum and hands back the file's violations.
func (d *detector) finish() violation.List {
	if d.matches < d.Minimum {
		d.log(1, fmt.Sprintf("File does not contain at least %d matches for pattern '%s'.", d.Minimum, d.Format))
	}
	return d.drain()
}

// scan runs fn with the per-file state reset, turning an empty pattern, a
// timeout or a panic inside the matcher into a single violation.
func (d *detector) scan(fn func() error) (out violation.List) {
	d.reset()
	if d.re == nil {
		d.log(1, "Required pattern is empty.")
		return d.drain()
	}
	defer func() {
		if r := recover(); r != nil {
			d.fault(fmt.Sprint(r))
			out = d.drain()
		}
	}()
	if err := fn(); err != nil {
		// regexp2 only fails a match on timeout; its error echoes the input.
		d.fault(d.timeoutCause())
		return d.drain()
	}
	return d.finish()
}

func (d *detector) drain() violation.List {
	out := d.found
	d.found = nil
	return out
}

// SetMeta sets the identity a detector stamps on its violations.
func SetMeta(d Detector, meta violation.Meta) {
	d.base().meta = meta
}

// Prepare returns the pre-configure hook the engine passes to
// module.Registry.Build for detectors. It claims the severity property.
func Prepare(id string, severity violation.Severity) func(module.Module, *module.Settings) error {
	return func(m module.Module, s *module.Settings) error {
		d, ok := m.(Detector)
		if !ok {
			return s.Errorf("", module.ErrMisplaced, "%T is not a text detector", m)
		}
		b := d.base()
		b.meta = violation.Meta{Source: d.Name(), ModuleID: id, Severity: severity}
		return s.Severity("severity", &b.meta.Severity)
	}
}

func activate(d Detector) {
	b := d.base()
	if b.meta.Source == "" {
		b.meta = violation.Meta{Source: d.Name(), Severity: violation.SeverityError}
	}
}
