package astcheck

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/dustin/go-humanize"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const defaultMaxNPath = 200

var npathScopes = ast.NewKindSet(
	ast.KindMethodDef, ast.KindCtorDef, ast.KindInstanceInit,
	ast.KindStaticInit, ast.KindCompactCtorDef,
)

// NPathComplexity counts the acyclic execution paths through each method,
// constructor and initializer. Values saturate at math.MaxUint64.
type NPathComplexity struct {
	Base
	Max int
}

func NewNPathComplexity() *NPathComplexity {
	return &NPathComplexity{Max: defaultMaxNPath}
}

func (c *NPathComplexity) Name() string { return "NPathComplexity" }

func (c *NPathComplexity) DefaultKinds() ast.KindSet    { return npathScopes }
func (c *NPathComplexity) AcceptableKinds() ast.KindSet { return npathScopes }
func (c *NPathComplexity) RequiredKinds() ast.KindSet   { return npathScopes }

func (c *NPathComplexity) Configure(s *module.Settings) error {
	return s.NonNegative("max", &c.Max)
}

func (c *NPathComplexity) Enter(n *ast.Node) {
	body := n.FindChild(ast.KindSList)
	if body == nil {
		return
	}
	v := NPath(body)
	if v > uint64(c.Max) {
		c.Log(n, fmt.Sprintf("NPath Complexity is %s (max allowed is %s).",
			commaUint(v), humanize.Comma(int64(c.Max))))
	}
}

// NPath returns the path count of a statement list.
func NPath(body *ast.Node) uint64 {
	return evalFlow(buildSeq(body))
}

func commaUint(v uint64) string {
	if v <= math.MaxInt64 {
		return humanize.Comma(int64(v))
	}
	return humanize.BigComma(new(big.Int).SetUint64(v))
}

// ---------------------------------------------------------------------------
// Flow model
// ---------------------------------------------------------------------------

// flow is the closed set of path-count shapes.
type flow interface{ isFlow() }

type (
	// seqFlow multiplies its statements.
	seqFlow []flow
	// exprFlow multiplies the ternaries and switch expressions embedded in
	// one expression.
	exprFlow []flow
	ifFlow   struct {
		ops       uint64
		pre       exprFlow
		then, els flow
	}
	loopFlow struct {
		ops  uint64
		pre  exprFlow
		body flow
	}
	switchFlow struct {
		ops   uint64
		pre   exprFlow
		cases []flow
	}
	ternaryFlow struct {
		ops  uint64
		pre  exprFlow
		t, f exprFlow
	}
	tryFlow struct {
		body    flow
		catches []flow
		finally flow
	}
)

func (seqFlow) isFlow()     {}
func (exprFlow) isFlow()    {}
func (ifFlow) isFlow()      {}
func (loopFlow) isFlow()    {}
func (switchFlow) isFlow()  {}
func (ternaryFlow) isFlow() {}
func (tryFlow) isFlow()     {}

func satAdd(a, b uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return s
}

func satMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

func product(fs []flow) uint64 {
	v := uint64(1)
	for _, f := range fs {
		v = satMul(v, evalFlow(f))
	}
	return v
}

func evalFlow(f flow) uint64 {
	switch f := f.(type) {
	case nil:
		return 1
	case seqFlow:
		return product(f)
	case exprFlow:
		return product(f)
	case ifFlow:
		els := uint64(1)
		if f.els != nil {
			els = evalFlow(f.els)
		}
		return satMul(satAdd(satAdd(f.ops, evalFlow(f.then)), els), product(f.pre))
	case loopFlow:
		return satMul(satAdd(satAdd(f.ops, evalFlow(f.body)), 1), product(f.pre))
	case switchFlow:
		v := f.ops
		for _, c := range f.cases {
			v = satAdd(v, evalFlow(c))
		}
		return satMul(max(v, 1), product(f.pre))
	case ternaryFlow:
		v := satAdd(satAdd(f.ops, product(f.t)), product(f.f))
		return satMul(v, product(f.pre))
	case tryFlow:
		v := evalFlow(f.body)
		for _, c := range f.catches {
			v = satAdd(v, evalFlow(c))
		}
		return satMul(v, evalFlow(f.finally))
	}
	panic(fmt.Sprintf("npath: unexpected flow %T", f))
}

// ---------------------------------------------------------------------------
// Building
// ---------------------------------------------------------------------------

func buildSeq(list *ast.Node) flow {
	if list == nil {
		return seqFlow(nil)
	}
	seq := make(seqFlow, 0, list.NumChildren())
	for _, stmt := range list.Children() {
		seq = append(seq, buildStmt(stmt))
	}
	return seq
}

func buildStmt(n *ast.Node) flow {
	switch n.Kind {
	case ast.KindSList:
		return buildSeq(n)
	case ast.KindIf:
		ops, pre := exprOf(n.FindChild(ast.KindExpr))
		f := ifFlow{ops: ops, pre: pre, then: buildSeq(n.FindChild(ast.KindSList))}
		if els := n.FindChild(ast.KindElse); els != nil {
			if inner := els.FirstChild(); inner != nil && inner.Kind == ast.KindIf {
				f.els = buildStmt(inner)
			} else {
				f.els = buildSeq(els.FindChild(ast.KindSList))
			}
		}
		return f
	case ast.KindWhile, ast.KindDo:
		ops, pre := exprOf(n.FindChild(ast.KindExpr))
		return loopFlow{ops: ops, pre: pre, body: buildSeq(n.FindChild(ast.KindSList))}
	case ast.KindFor:
		return buildFor(n)
	case ast.KindSwitch:
		return buildSwitch(n)
	case ast.KindTry:
		f := tryFlow{body: buildSeq(n.FindChild(ast.KindSList))}
		for _, c := range n.ChildrenOf(ast.KindCatch) {
			f.catches = append(f.catches, buildSeq(c.FindChild(ast.KindSList)))
		}
		if fin := n.FindChild(ast.KindFinally); fin != nil {
			f.finally = buildSeq(fin.FindChild(ast.KindSList))
		}
		return f
	case ast.KindSynchronized:
		_, pre := exprOf(n.FindChild(ast.KindExpr))
		return seqFlow{pre, buildSeq(n.FindChild(ast.KindSList))}
	case ast.KindLabeledStat:
		for _, c := range n.Children() {
			if c.Kind != ast.KindIdent {
				return buildStmt(c)
			}
		}
		return seqFlow(nil)
	}
	if n.Kind.IsTypeDef() {
		return seqFlow(nil)
	}
	_, pre := exprOf(n)
	return pre
}

func buildFor(n *ast.Node) flow {
	f := loopFlow{body: buildSeq(n.FindChild(ast.KindSList))}
	for _, part := range n.Children() {
		switch part.Kind {
		case ast.KindForCondition:
			ops, pre := exprOf(part)
			f.ops = ops
			f.pre = append(f.pre, pre...)
		case ast.KindForInit, ast.KindForIterator, ast.KindForEachClause:
			_, pre := exprOf(part)
			f.pre = append(f.pre, pre...)
		}
	}
	return f
}

func buildSwitch(n *ast.Node) flow {
	ops, pre := exprOf(n.FindChild(ast.KindExpr))
	f := switchFlow{ops: ops, pre: pre}
	for _, c := range n.Children() {
		switch c.Kind {
		case ast.KindCaseGroup:
			f.cases = append(f.cases, buildSeq(c.FindChild(ast.KindSList)))
		case ast.KindSwitchRule:
			if body := c.FindChild(ast.KindSList); body != nil {
				f.cases = append(f.cases, buildSeq(body))
			} else if e := c.FindChild(ast.KindExpr); e != nil {
				_, p := exprOf(e)
				f.cases = append(f.cases, p)
			} else {
				f.cases = append(f.cases, seqFlow(nil))
			}
		}
	}
	return f
}

// exprOf counts the conditional operators of an expression subtree and
// collects the ternaries and switch expressions nested in it. Lambdas and
// class bodies are opaque.
func exprOf(n *ast.Node) (uint64, exprFlow) {
	if n == nil {
		return 0, nil
	}
	var ops uint64
	var nested exprFlow
	n.Walk(func(c *ast.Node) bool {
		switch c.Kind {
		case ast.KindLAnd, ast.KindLOr:
			ops++
		case ast.KindQuestion:
			nested = append(nested, buildTernary(c))
			return false
		case ast.KindSwitch:
			if c != n {
				nested = append(nested, buildSwitch(c))
				return false
			}
		case ast.KindLambda, ast.KindObjBlock:
			return false
		}
		return !c.Kind.IsTypeDef()
	})
	return ops, nested
}

func buildTernary(q *ast.Node) flow {
	f := ternaryFlow{}
	f.ops, f.pre = exprOf(q.Child(0))
	_, f.t = exprOf(q.Child(1))
	_, f.f = exprOf(q.Child(2))
	return f
}
