package astcheck

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const defaultMaxCyclomatic = 10

var (
	cyclomaticScopes = ast.NewKindSet(
		ast.KindMethodDef, ast.KindCtorDef, ast.KindInstanceInit,
		ast.KindStaticInit, ast.KindCompactCtorDef, ast.KindLambda,
	)
	cyclomaticDecisions = ast.NewKindSet(
		ast.KindIf, ast.KindWhile, ast.KindDo, ast.KindFor, ast.KindCatch,
		ast.KindQuestion, ast.KindLAnd, ast.KindLOr, ast.KindCase, ast.KindSwitch,
	)
)

// CyclomaticComplexity counts decision points per method, constructor,
// initializer and lambda. Lambdas are scored on their own and do not add to
// the enclosing method.
type CyclomaticComplexity struct {
	Base
	Max                              int
	SwitchBlockAsSingleDecisionPoint bool

	frames []ccFrame
}

type ccFrame struct {
	value int
	// barrier frames stand for class bodies nested in a scope; decisions
	// inside them belong to nobody until a method opens a new scope.
	barrier bool
}

func NewCyclomaticComplexity() *CyclomaticComplexity {
	return &CyclomaticComplexity{Max: defaultMaxCyclomatic}
}

func (c *CyclomaticComplexity) Name() string { return "CyclomaticComplexity" }

func (c *CyclomaticComplexity) DefaultKinds() ast.KindSet {
	return cyclomaticDecisions.Union(c.RequiredKinds())
}

func (c *CyclomaticComplexity) AcceptableKinds() ast.KindSet { return c.DefaultKinds() }

func (c *CyclomaticComplexity) RequiredKinds() ast.KindSet {
	return cyclomaticScopes.With(ast.KindObjBlock)
}

func (c *CyclomaticComplexity) Configure(s *module.Settings) error {
	if err := s.Int("max", &c.Max); err != nil {
		return err
	}
	return s.Bool("switchBlockAsSingleDecisionPoint", &c.SwitchBlockAsSingleDecisionPoint)
}

func (c *CyclomaticComplexity) BeginFile(*FileContext) {
	c.frames = c.frames[:0]
}

func (c *CyclomaticComplexity) Enter(n *ast.Node) {
	switch {
	case cyclomaticScopes.Has(n.Kind):
		c.frames = append(c.frames, ccFrame{value: 1})
		return
	case n.Kind == ast.KindObjBlock:
		c.frames = append(c.frames, ccFrame{barrier: true})
		return
	}
	if len(c.frames) == 0 {
		return
	}
	top := &c.frames[len(c.frames)-1]
	if top.barrier {
		return
	}
	switch n.Kind {
	case ast.KindSwitch:
		if c.SwitchBlockAsSingleDecisionPoint {
			top.value++
		}
	case ast.KindCase:
		if !c.SwitchBlockAsSingleDecisionPoint {
			top.value++
		}
	default:
		top.value++
	}
}

func (c *CyclomaticComplexity) Exit(n *ast.Node) {
	if !cyclomaticScopes.Has(n.Kind) && n.Kind != ast.KindObjBlock {
		return
	}
	top := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	if !top.barrier && top.value > c.Max {
		c.Log(n, fmt.Sprintf("Cyclomatic Complexity is %s (max allowed is %s).",
			humanize.Comma(int64(top.value)), humanize.Comma(int64(c.Max))))
	}
}
