package astcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/dustin/go-humanize"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const (
	defaultMaxFanOut              = 20
	defaultMaxAbstractionCoupling = 7
)

// DefaultExcludedClasses are ignored by both coupling checks unless the
// excludedClasses property replaces them.
var DefaultExcludedClasses = []string{
	"ArrayIndexOutOfBoundsException", "ArrayList", "Boolean", "Byte",
	"Character", "Class", "Collection", "Deprecated", "Deque", "Double",
	"DoubleStream", "EnumSet", "Exception", "Float", "FunctionalInterface",
	"HashMap", "HashSet", "IllegalArgumentException", "IllegalStateException",
	"IndexOutOfBoundsException", "IntStream", "Integer", "LinkedHashMap",
	"LinkedHashSet", "LinkedList", "List", "Long", "LongStream", "Map",
	"NullPointerException", "Object", "Optional", "OptionalDouble",
	"OptionalInt", "OptionalLong", "Override", "Queue", "RuntimeException",
	"SafeVarargs", "SecurityException", "Set", "Short", "SortedMap",
	"SortedSet", "Stream", "String", "StringBuffer", "StringBuilder",
	"SuppressFBWarnings", "SuppressWarnings", "Throwable", "TreeMap",
	"TreeSet", "UnsupportedOperationException", "Void",
}

// primitiveTypes are never counted, whatever excludedClasses holds.
var primitiveTypes = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true, "int": true,
	"long": true, "float": true, "double": true, "void": true, "var": true,
}

var couplingKinds = ast.NewKindSet(
	ast.KindPackageDef, ast.KindImport,
	ast.KindClassDef, ast.KindInterfaceDef, ast.KindEnumDef, ast.KindRecordDef, ast.KindAnnotationDef,
	ast.KindObjBlock, ast.KindTypeParameter, ast.KindType, ast.KindNew, ast.KindAnnotation,
)

// coupling tracks the classes each type references. Named types, anonymous
// class bodies and enum constant bodies are separate scopes.
type coupling struct {
	Base
	Max                   int
	ExcludedClasses       map[string]bool
	ExcludedPackages      []string
	ExcludeClassesRegexps []*regexp2.Regexp

	// abstraction restricts counting to instantiations.
	abstraction bool

	pkg     string
	imports map[string]string
	frames  []couplingFrame

	offending []string
}

type couplingFrame struct {
	node       *ast.Node
	refs       map[string]string // resolved name -> written name
	typeParams map[string]bool
}

func newCoupling(max int, abstraction bool) coupling {
	excluded := make(map[string]bool, len(DefaultExcludedClasses))
	for _, name := range DefaultExcludedClasses {
		excluded[name] = true
	}
	return coupling{
		Max:                   max,
		ExcludedClasses:       excluded,
		ExcludeClassesRegexps: []*regexp2.Regexp{regexp2.MustCompile("^$", regexp2.None)},
		abstraction:           abstraction,
	}
}

func (c *coupling) DefaultKinds() ast.KindSet    { return couplingKinds }
func (c *coupling) AcceptableKinds() ast.KindSet { return couplingKinds }
func (c *coupling) RequiredKinds() ast.KindSet   { return couplingKinds }

func (c *coupling) Configure(s *module.Settings) error {
	if err := s.NonNegative("max", &c.Max); err != nil {
		return err
	}
	if s.Has("excludedClasses") {
		var names []string
		s.Strings("excludedClasses", &names)
		c.ExcludedClasses = make(map[string]bool, len(names))
		for _, name := range names {
			c.ExcludedClasses[name] = true
		}
	}
	s.Strings("excludedPackages", &c.ExcludedPackages)
	for _, p := range c.ExcludedPackages {
		if !validPackageName(p) {
			return s.Errorf("excludedPackages", module.ErrInvalidProperty, "%q is not a package name", p)
		}
	}
	return s.Patterns("excludeClassesRegexps", &c.ExcludeClassesRegexps)
}

func validPackageName(p string) bool {
	for _, part := range strings.Split(p, ".") {
		if part == "" {
			return false
		}
		for i, r := range part {
			ok := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
			if !ok {
				return false
			}
		}
	}
	return true
}

// Offending returns the sorted class names counted for the most recently
// reported scope.
func (c *coupling) Offending() []string {
	return c.offending
}

func (c *coupling) BeginFile(*FileContext) {
	c.pkg = ""
	c.imports = make(map[string]string)
	c.frames = c.frames[:0]
	c.offending = nil
}

func isCouplingScope(n *ast.Node) bool {
	if n.Kind.IsTypeDef() {
		return true
	}
	if n.Kind != ast.KindObjBlock {
		return false
	}
	p := n.Parent()
	return p != nil && (p.Kind == ast.KindNew || p.Kind == ast.KindEnumConstantDef)
}

func (c *coupling) Enter(n *ast.Node) {
	if isCouplingScope(n) {
		c.frames = append(c.frames, couplingFrame{
			node:       n,
			refs:       make(map[string]string),
			typeParams: make(map[string]bool),
		})
		return
	}
	switch n.Kind {
	case ast.KindPackageDef:
		c.pkg = n.Text
		return
	case ast.KindImport:
		if !strings.HasSuffix(n.Text, ".*") {
			c.imports[lastSegment(n.Text)] = n.Text
		}
		return
	}
	if len(c.frames) == 0 {
		return
	}
	top := &c.frames[len(c.frames)-1]
	switch n.Kind {
	case ast.KindTypeParameter:
		top.typeParams[n.Name()] = true
	case ast.KindType:
		if !c.abstraction {
			c.reference(top, n.Text)
		}
	case ast.KindAnnotation:
		if !c.abstraction {
			c.reference(top, n.Text)
		}
	case ast.KindNew:
		if c.abstraction && n.FindChild(ast.KindObjBlock) == nil {
			if t := n.FindChild(ast.KindType); t != nil {
				c.reference(top, t.Text)
			}
		}
	}
}

func (c *coupling) reference(f *couplingFrame, written string) {
	if written == "" {
		return
	}
	resolved := c.resolve(written)
	if _, ok := f.refs[resolved]; !ok {
		f.refs[resolved] = written
	}
}

// resolve maps a written type name to a qualified name using single-type
// imports, falling back to the file's package.
func (c *coupling) resolve(written string) string {
	first, rest, qualified := strings.Cut(written, ".")
	if imported, ok := c.imports[first]; ok {
		if qualified {
			return imported + "." + rest
		}
		return imported
	}
	if qualified || c.pkg == "" {
		return written
	}
	return c.pkg + "." + written
}

func (c *coupling) excluded(f *couplingFrame, resolved, written string) bool {
	if primitiveTypes[written] || f.typeParams[written] || c.ExcludedClasses[written] || c.ExcludedClasses[resolved] {
		return true
	}
	for _, outer := range c.frames {
		if outer.typeParams[written] {
			return true
		}
	}
	if i := strings.LastIndexByte(resolved, '.'); i > 0 {
		pkg := resolved[:i]
		for _, p := range c.ExcludedPackages {
			if pkg == p || strings.HasPrefix(pkg, p+".") {
				return true
			}
		}
	}
	for _, re := range c.ExcludeClassesRegexps {
		for _, candidate := range []string{written, resolved} {
			if ok, _ := re.MatchString(candidate); ok {
				return true
			}
		}
	}
	return false
}

// pop closes the innermost scope and returns the sorted written names that
// survive the exclusions.
func (c *coupling) pop() []string {
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	var names []string
	for resolved, written := range top.refs {
		if !c.excluded(&top, resolved, written) {
			names = append(names, written)
		}
	}
	sort.Strings(names)
	return names
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// ClassFanOutComplexity limits the number of other classes a type relies on.
type ClassFanOutComplexity struct {
	coupling
}

func NewClassFanOutComplexity() *ClassFanOutComplexity {
	return &ClassFanOutComplexity{coupling: newCoupling(defaultMaxFanOut, false)}
}

func (c *ClassFanOutComplexity) Name() string { return "ClassFanOutComplexity" }

func (c *ClassFanOutComplexity) Exit(n *ast.Node) {
	if !isCouplingScope(n) {
		return
	}
	names := c.pop()
	if len(names) > c.Max {
		c.offending = names
		c.Log(n, fmt.Sprintf("Class Fan-Out Complexity is %s (max allowed is %s).",
			humanize.Comma(int64(len(names))), humanize.Comma(int64(c.Max))))
	}
}

// ClassDataAbstractionCoupling limits the number of classes a type
// instantiates.
type ClassDataAbstractionCoupling struct {
	coupling
}

func NewClassDataAbstractionCoupling() *ClassDataAbstractionCoupling {
	return &ClassDataAbstractionCoupling{coupling: newCoupling(defaultMaxAbstractionCoupling, true)}
}

func (c *ClassDataAbstractionCoupling) Name() string { return "ClassDataAbstractionCoupling" }

func (c *ClassDataAbstractionCoupling) Exit(n *ast.Node) {
	if !isCouplingScope(n) {
		return
	}
	names := c.pop()
	if len(names) > c.Max {
		c.offending = names
		c.Log(n, fmt.Sprintf("Class Data Abstraction Coupling is %s (max allowed is %s) classes [%s].",
			humanize.Comma(int64(len(names))), humanize.Comma(int64(c.Max)), strings.Join(names, ", ")))
	}
}
