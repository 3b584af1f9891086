package astcheck

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const (
	defaultMaxMethodNCSS = 50
	defaultMaxClassNCSS  = 1500
	defaultMaxRecordNCSS = 150
	defaultMaxFileNCSS   = 2000
)

var ncssKinds = ast.NewKindSet(
	ast.KindPackageDef, ast.KindImport, ast.KindStaticImport,
	ast.KindClassDef, ast.KindInterfaceDef, ast.KindEnumDef, ast.KindRecordDef, ast.KindAnnotationDef,
	ast.KindMethodDef, ast.KindCtorDef, ast.KindCompactCtorDef, ast.KindInstanceInit, ast.KindStaticInit,
	ast.KindEnumConstantDef, ast.KindVariableDef, ast.KindExpr,
	ast.KindIf, ast.KindElse, ast.KindWhile, ast.KindDo, ast.KindFor,
	ast.KindSwitch, ast.KindCaseGroup, ast.KindSwitchRule,
	ast.KindBreak, ast.KindContinue, ast.KindReturn, ast.KindThrow, ast.KindYield, ast.KindAssert,
	ast.KindTry, ast.KindCatch, ast.KindFinally, ast.KindSynchronized, ast.KindLabeledStat,
)

// JavaNCSS counts non-commenting source statements per method, type and
// file.
type JavaNCSS struct {
	Base
	MethodMaximum int
	ClassMaximum  int
	RecordMaximum int
	FileMaximum   int

	fileCount int
	counters  []ncssCounter
}

type ncssCounter struct {
	node  *ast.Node
	count int
	max   int
	what  string
}

func NewJavaNCSS() *JavaNCSS {
	return &JavaNCSS{
		MethodMaximum: defaultMaxMethodNCSS,
		ClassMaximum:  defaultMaxClassNCSS,
		RecordMaximum: defaultMaxRecordNCSS,
		FileMaximum:   defaultMaxFileNCSS,
	}
}

func (c *JavaNCSS) Name() string { return "JavaNCSS" }

func (c *JavaNCSS) DefaultKinds() ast.KindSet    { return ncssKinds }
func (c *JavaNCSS) AcceptableKinds() ast.KindSet { return ncssKinds }
func (c *JavaNCSS) RequiredKinds() ast.KindSet   { return ncssKinds }

func (c *JavaNCSS) Configure(s *module.Settings) error {
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"methodMaximum", &c.MethodMaximum},
		{"classMaximum", &c.ClassMaximum},
		{"recordMaximum", &c.RecordMaximum},
		{"fileMaximum", &c.FileMaximum},
	} {
		if err := s.NonNegative(p.name, p.dst); err != nil {
			return err
		}
	}
	return nil
}

func (c *JavaNCSS) BeginFile(*FileContext) {
	c.fileCount = 0
	c.counters = c.counters[:0]
}

func (c *JavaNCSS) Enter(n *ast.Node) {
	switch {
	case n.Kind == ast.KindRecordDef:
		c.push(n, c.RecordMaximum, "record")
	case n.Kind.IsTypeDef():
		c.push(n, c.ClassMaximum, "class")
	case n.Kind.IsMethodLike():
		c.push(n, c.MethodMaximum, "method")
	}
	if !ncssCountable(n) {
		return
	}
	c.fileCount++
	for i := range c.counters {
		c.counters[i].count++
	}
}

func (c *JavaNCSS) push(n *ast.Node, max int, what string) {
	c.counters = append(c.counters, ncssCounter{node: n, max: max, what: what})
}

func (c *JavaNCSS) Exit(n *ast.Node) {
	if len(c.counters) == 0 || c.counters[len(c.counters)-1].node != n {
		return
	}
	top := c.counters[len(c.counters)-1]
	c.counters = c.counters[:len(c.counters)-1]
	if top.count > top.max {
		c.Log(n, ncssMessage(top.what, top.count, top.max))
	}
}

func (c *JavaNCSS) EndFile() {
	if c.fileCount > c.FileMaximum {
		c.LogLine(1, ncssMessage("file", c.fileCount, c.FileMaximum))
	}
}

func ncssMessage(what string, count, max int) string {
	return fmt.Sprintf("NCSS for this %s is %s (max allowed is %s).",
		what, humanize.Comma(int64(count)), humanize.Comma(int64(max)))
}

func ncssCountable(n *ast.Node) bool {
	parent := n.Parent()
	switch n.Kind {
	case ast.KindVariableDef:
		return parent != nil && (parent.Kind == ast.KindObjBlock || parent.Kind == ast.KindSList)
	case ast.KindExpr:
		return parent != nil && parent.Kind == ast.KindSList
	case ast.KindElse:
		first := n.FirstChild()
		return first == nil || first.Kind != ast.KindIf
	}
	return ncssKinds.Has(n.Kind)
}
