package astcheck

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const defaultMaxBooleanOperators = 3

var booleanOperators = ast.NewKindSet(ast.KindLAnd, ast.KindLOr, ast.KindBAnd, ast.KindBOr, ast.KindBXor)

// BooleanExpressionComplexity limits the number of boolean operators in one
// expression. Every EXPR node starts a new expression, so call arguments
// and lambda bodies are measured on their own.
type BooleanExpressionComplexity struct {
	Base
	Max int

	stack []int
}

func NewBooleanExpressionComplexity() *BooleanExpressionComplexity {
	return &BooleanExpressionComplexity{Max: defaultMaxBooleanOperators}
}

func (c *BooleanExpressionComplexity) Name() string { return "BooleanExpressionComplexity" }

func (c *BooleanExpressionComplexity) DefaultKinds() ast.KindSet {
	return ast.NewKindSet(ast.KindLAnd, ast.KindLOr)
}

func (c *BooleanExpressionComplexity) AcceptableKinds() ast.KindSet {
	return booleanOperators.Union(c.RequiredKinds())
}

func (c *BooleanExpressionComplexity) RequiredKinds() ast.KindSet {
	return ast.NewKindSet(ast.KindExpr)
}

func (c *BooleanExpressionComplexity) Configure(s *module.Settings) error {
	return s.NonNegative("max", &c.Max)
}

func (c *BooleanExpressionComplexity) BeginFile(*FileContext) {
	c.stack = c.stack[:0]
}

func (c *BooleanExpressionComplexity) Enter(n *ast.Node) {
	if n.Kind == ast.KindExpr {
		c.stack = append(c.stack, 0)
		return
	}
	if len(c.stack) > 0 {
		c.stack[len(c.stack)-1]++
	}
}

func (c *BooleanExpressionComplexity) Exit(n *ast.Node) {
	if n.Kind != ast.KindExpr {
		return
	}
	count := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	if count > c.Max {
		c.Log(n, fmt.Sprintf("Boolean expression complexity is %s (max allowed is %s).",
			humanize.Comma(int64(count)), humanize.Comma(int64(c.Max))))
	}
}
