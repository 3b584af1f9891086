package astcheck

import (
	"fmt"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const defaultMaxDepth = 4

var nestingKinds = ast.NewKindSet(
	ast.KindIf, ast.KindFor, ast.KindWhile, ast.KindDo, ast.KindSwitch, ast.KindTry,
)

// NestedDepth checks that control-flow nesting does not exceed a
// configurable depth. An else-if continues its chain rather than nesting.
// Once a statement is reported, nothing inside it is reported again.
type NestedDepth struct {
	Base
	Max int

	depth    int
	reported *ast.Node
}

func NewNestedDepth() *NestedDepth {
	return &NestedDepth{Max: defaultMaxDepth}
}

func (d *NestedDepth) Name() string { return "NestedDepth" }

func (d *NestedDepth) DefaultKinds() ast.KindSet    { return nestingKinds }
func (d *NestedDepth) AcceptableKinds() ast.KindSet { return nestingKinds }

func (d *NestedDepth) Configure(s *module.Settings) error {
	return s.NonNegative("max", &d.Max)
}

func (d *NestedDepth) BeginFile(*FileContext) {
	d.depth = 0
	d.reported = nil
}

func nests(n *ast.Node) bool {
	p := n.Parent()
	return !(n.Kind == ast.KindIf && p != nil && p.Kind == ast.KindElse)
}

func (d *NestedDepth) Enter(n *ast.Node) {
	if !nests(n) {
		return
	}
	d.depth++
	if d.depth > d.Max && d.reported == nil {
		d.reported = n
		d.Log(n, fmt.Sprintf("Nested depth is %d (max allowed is %d).", d.depth, d.Max))
	}
}

func (d *NestedDepth) Exit(n *ast.Node) {
	if !nests(n) {
		return
	}
	d.depth--
	if d.reported == n {
		d.reported = nil
	}
}
