package astcheck

import (
	"strings"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/violation"
)

// Check is the interface that all tree checks implement. A Walker drives
// the hooks; a check keeps per-file state only, reset in BeginFile.
type Check interface {
	module.Module

	// Name returns the module name the check is registered under.
	Name() string
	// DefaultKinds are dispatched when no tokens property is configured.
	DefaultKinds() ast.KindSet
	// AcceptableKinds bounds what the tokens property may request.
	AcceptableKinds() ast.KindSet
	// RequiredKinds are always dispatched.
	RequiredKinds() ast.KindSet
	// Meta is the identity stamped on logged violations.
	Meta() violation.Meta

	BeginFile(fc *FileContext)
	Enter(n *ast.Node)
	Exit(n *ast.Node)
	EndFile()

	base() *Base
}

// FileContext describes the file being walked.
type FileContext struct {
	Path  string
	Text  string
	Lines []string
}

// NewFileContext splits text into lines once for all checks.
func NewFileContext(path, text string) *FileContext {
	return &FileContext{Path: path, Text: text, Lines: strings.Split(text, "\n")}
}

// Base carries the state every check shares: identity, active kinds, the
// current file and the violations logged for it. Embed it by value.
type Base struct {
	meta     violation.Meta
	kinds    ast.KindSet
	hasKinds bool
	file     *FileContext
	found    violation.List
}

func (b *Base) base() *Base { return b }

// BeginFile, Enter, Exit and EndFile are no-ops so checks only override the
// hooks they need.
func (b *Base) BeginFile(*FileContext) {}
func (b *Base) Enter(*ast.Node)        {}
func (b *Base) Exit(*ast.Node)         {}
func (b *Base) EndFile()               {}

func (b *Base) RequiredKinds() ast.KindSet { return ast.KindSet{} }

// File returns the file currently being walked.
func (b *Base) File() *FileContext { return b.file }

// Kinds returns the kinds dispatched to the check.
func (b *Base) Kinds() ast.KindSet { return b.kinds }

// Meta returns the identity stamped on logged violations.
func (b *Base) Meta() violation.Meta { return b.meta }

// Log records a violation at n. Columns are reported 1-based.
func (b *Base) Log(n *ast.Node, msg string) {
	b.found = append(b.found, b.meta.At(n.Line, n.Column+1, msg))
}

// LogLine records a violation with no column.
func (b *Base) LogLine(line int, msg string) {
	b.found = append(b.found, b.meta.At(line, 0, msg))
}

func (b *Base) reset(fc *FileContext) {
	b.file = fc
	b.found = nil
}

func (b *Base) drain() violation.List {
	out := b.found
	b.found = nil
	return out
}

// SetMeta sets the identity a check stamps on its violations.
func SetMeta(c Check, meta violation.Meta) {
	c.base().meta = meta
}

// Prepare returns the pre-configure hook the engine passes to
// module.Registry.Build for tree checks. It claims the properties every
// check shares (severity and tokens) before the check reads its own.
func Prepare(id string, severity violation.Severity) func(module.Module, *module.Settings) error {
	return func(m module.Module, s *module.Settings) error {
		c, ok := m.(Check)
		if !ok {
			return s.Errorf("", module.ErrMisplaced, "%T is not a tree check", m)
		}
		b := c.base()
		b.meta = violation.Meta{Source: c.Name(), ModuleID: id, Severity: severity}
		if err := s.Severity("severity", &b.meta.Severity); err != nil {
			return err
		}
		return configureKinds(c, s)
	}
}

func configureKinds(c Check, s *module.Settings) error {
	acceptable, required := c.AcceptableKinds(), c.RequiredKinds()
	if !required.SubsetOf(acceptable) {
		return s.Errorf("tokens", module.ErrMissingRequiredKind,
			"required kinds %s are not acceptable", required.Minus(acceptable))
	}
	kinds := c.DefaultKinds()
	if s.Has("tokens") {
		var names []string
		s.Strings("tokens", &names)
		kinds = ast.KindSet{}
		for _, name := range names {
			k, ok := ast.ParseKind(name)
			if !ok {
				return s.Errorf("tokens", module.ErrInvalidProperty, "unknown kind %q", name)
			}
			if !acceptable.Has(k) {
				return s.Errorf("tokens", module.ErrUnacceptableKind,
					"%s is not acceptable for %s", k, c.Name())
			}
			kinds = kinds.With(k)
		}
	}
	b := c.base()
	b.kinds = kinds.Union(required)
	b.hasKinds = true
	return nil
}

// activate fills in identity and kinds for checks that were never
// configured through Prepare, as happens when tests build them directly.
func activate(c Check) {
	b := c.base()
	if b.meta.Source == "" {
		b.meta.Source = c.Name()
		b.meta.Severity = violation.SeverityError
	}
	if !b.hasKinds {
		b.kinds = c.DefaultKinds().Union(c.RequiredKinds())
		b.hasKinds = true
	}
}
