package astcheck

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/google/go-cmp/cmp"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/javaparse"
	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/violation"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func walkJava(t *testing.T, source string, checks ...Check) violation.List {
	t.Helper()
	root, err := javaparse.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("failed to parse source: %v", err)
	}
	return NewWalker(checks...).Walk(NewFileContext("T.java", source), root)
}

func walkTree(root *ast.Node, checks ...Check) violation.List {
	return NewWalker(checks...).Walk(NewFileContext("T.java", ""), root)
}

func messages(l violation.List) []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		out = append(out, v.Message)
	}
	return out
}

func ident(name string) *ast.Node { return ast.Leaf(ast.KindIdent, name) }

func expr(children ...*ast.Node) *ast.Node { return ast.Tree(ast.KindExpr, children...) }

func slist(stmts ...*ast.Node) *ast.Node { return ast.Tree(ast.KindSList, stmts...) }

func ifElse(cond string, then, els *ast.Node) *ast.Node {
	n := ast.Tree(ast.KindIf, expr(ident(cond)), then)
	if els != nil {
		n.AddChild(ast.Tree(ast.KindElse, els))
	}
	return n
}

// method wraps body in a METHOD_DEF at 3:4 inside a class at 1:0.
func method(body *ast.Node) *ast.Node {
	m := ast.Tree(ast.KindMethodDef,
		ast.Leaf(ast.KindModifiers, ""),
		ident("m"),
		ast.Leaf(ast.KindParameters, ""),
		body,
	).At(3, 4).Named("m")
	return ast.Tree(ast.KindClassDef,
		ast.Leaf(ast.KindModifiers, ""),
		ident("A"),
		ast.Tree(ast.KindObjBlock, m),
	).At(1, 0).Named("A")
}

// ---------------------------------------------------------------------------
// Walker
// ---------------------------------------------------------------------------

type boomCheck struct {
	Base
	entered, exited, ended int
}

func (b *boomCheck) Name() string                      { return "Boom" }
func (b *boomCheck) DefaultKinds() ast.KindSet         { return ast.NewKindSet(ast.KindMethodDef, ast.KindIf) }
func (b *boomCheck) AcceptableKinds() ast.KindSet      { return b.DefaultKinds() }
func (b *boomCheck) Configure(s *module.Settings) error { return nil }

func (b *boomCheck) Enter(n *ast.Node) {
	b.entered++
	if n.Kind == ast.KindIf {
		panic("boom")
	}
}

func (b *boomCheck) Exit(*ast.Node) { b.exited++ }
func (b *boomCheck) EndFile()       { b.ended++ }

func TestWalkerIsolatesFaults(t *testing.T) {
	root := method(slist(ast.Tree(ast.KindIf, expr(ident("a")), slist()).At(5, 8)))
	boom := &boomCheck{}
	cc := NewCyclomaticComplexity()
	cc.Max = 1

	got := walkTree(root, boom, cc)
	want := violation.List{
		{Line: 3, Column: 5, Severity: violation.SeverityError, Source: "CyclomaticComplexity",
			Message: "Cyclomatic Complexity is 2 (max allowed is 1)."},
		{Line: 5, Column: 9, Severity: violation.SeverityError, Source: "Boom",
			Message: "Check Boom failed: boom"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
	if boom.exited != 0 || boom.ended != 0 {
		t.Fatalf("failed check kept receiving hooks: exited=%d ended=%d", boom.exited, boom.ended)
	}
}

func TestWalkerFaultDoesNotLeakToNextFile(t *testing.T) {
	boom := &boomCheck{}
	w := NewWalker(boom)

	first := w.Walk(NewFileContext("A.java", ""), method(slist(ifElse("a", slist(), nil))))
	if len(first) != 1 {
		t.Fatalf("expected one fault, got %v", first)
	}

	second := w.Walk(NewFileContext("B.java", ""), method(slist()))
	if len(second) != 0 {
		t.Fatalf("expected a clean second file, got %v", second)
	}
	if boom.ended != 1 {
		t.Fatalf("expected EndFile on the second file only, got %d", boom.ended)
	}
}

func TestWalkerIsRepeatable(t *testing.T) {
	source := `class A {
    void m(int k) {
        if (k > 0 && k < 10 || k == 42) { k++; }
        switch (k) { case 1: break; case 2: break; default: k--; }
    }
}
`
	root, err := javaparse.Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cc := NewCyclomaticComplexity()
	cc.Max = 0
	np := NewNPathComplexity()
	np.Max = 0
	w := NewWalker(cc, np, NewJavaNCSS(), NewBooleanExpressionComplexity())

	fc := NewFileContext("A.java", source)
	first := w.Walk(fc, root)
	second := w.Walk(fc, root)
	if len(first) == 0 {
		t.Fatal("expected violations")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second walk differs (-first +second):\n%s", diff)
	}
}

func TestReusedCheckMatchesFreshInstance(t *testing.T) {
	files := []string{
		`package a;
import java.util.List;
class A extends Base implements Runnable {
    private List<String> names = new java.util.ArrayList<>();
    void run() {
        for (int i = 0; i < 10; i++) {
            if (i % 2 == 0 && i > 4 || i == 1) { try { work(i); } catch (Exception e) { } }
            else { while (i > 3) { i--; } }
        }
    }
    void many(int a, int b, int c, int d) { Runnable r = () -> { if (a > b) { } }; }
}
`,
		`package b;
record R(int x, int y) {
    R { if (x < 0) { throw new IllegalArgumentException(); } }
    int sum() { return switch (x) { case 1 -> y; case 2 -> y * 2; default -> 0; }; }
}
`,
		`package c;
class C {
    static { int z = 1; }
    int f(boolean p, boolean q) {
        if (p || q) { return 1; }
        try { return 2; } catch (RuntimeException e) { } finally { q = !p; }
        return p && q ? 3 : 4;
    }
}
`,
	}
	trees := make([]*ast.Node, len(files))
	for i, src := range files {
		root, err := javaparse.Parse(context.Background(), []byte(src))
		if err != nil {
			t.Fatalf("parse file %d: %v", i, err)
		}
		trees[i] = root
	}

	// Low thresholds so every check has state worth leaking.
	props := map[string][][2]string{
		"BooleanExpressionComplexity":  {{"max", "0"}},
		"ClassDataAbstractionCoupling": {{"max", "0"}},
		"ClassFanOutComplexity":        {{"max", "0"}},
		"CyclomaticComplexity":         {{"max", "0"}},
		"JavaNCSS":                     {{"methodMaximum", "0"}, {"classMaximum", "0"}, {"fileMaximum", "0"}},
		"MethodLength":                 {{"max", "0"}},
		"NPathComplexity":              {{"max", "0"}},
		"NestedDepth":                  {{"max", "0"}},
		"ParameterNumber":              {{"max", "0"}},
	}

	r := DefaultRegistry()
	for _, name := range r.Names() {
		t.Run(name, func(t *testing.T) {
			build := func() Check {
				cfg := module.New(name)
				for _, kv := range props[name] {
					cfg.Set(kv[0], kv[1])
				}
				m, err := r.Build("Checker/TreeWalker/"+name, cfg, Prepare(name, violation.SeverityError))
				if err != nil {
					t.Fatalf("build: %v", err)
				}
				return m.(Check)
			}

			reused := NewWalker(build())
			for i := 0; i < 2; i++ {
				reused.Walk(NewFileContext("F.java", files[i]), trees[i])
			}
			got := reused.Walk(NewFileContext("C.java", files[2]), trees[2])
			want := NewWalker(build()).Walk(NewFileContext("C.java", files[2]), trees[2])
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("reused check differs from a fresh one (-fresh +reused):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

func TestPrepareTokensAndSeverity(t *testing.T) {
	r := DefaultRegistry()

	cfg := module.New("CyclomaticComplexity").Set("tokens", "LITERAL_IF, LITERAL_WHILE").Set("severity", "warning")
	m, err := r.Build("Checker/TreeWalker/CyclomaticComplexity", cfg, Prepare("cc", violation.SeverityError))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := m.(Check)
	kinds := c.base().Kinds()
	if !kinds.Has(ast.KindIf) || kinds.Has(ast.KindFor) {
		t.Fatalf("unexpected active kinds: %s", kinds)
	}
	if !kinds.Has(ast.KindMethodDef) {
		t.Fatal("required kinds must stay active")
	}
	meta := c.base().Meta()
	if meta.Severity != violation.SeverityWarning || meta.ModuleID != "cc" {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	_, err = r.Build("Checker/TreeWalker/CyclomaticComplexity",
		module.New("CyclomaticComplexity").Set("tokens", "LITERAL_NEW"), Prepare("", violation.SeverityError))
	if !errors.Is(err, module.ErrUnacceptableKind) {
		t.Fatalf("expected ErrUnacceptableKind, got %v", err)
	}
	var cfgErr *module.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Property != "tokens" {
		t.Fatalf("expected a tokens ConfigError, got %v", err)
	}

	_, err = r.Build("Checker/TreeWalker/CyclomaticComplexity",
		module.New("CyclomaticComplexity").Set("tokens", "NOT_A_KIND"), Prepare("", violation.SeverityError))
	if !errors.Is(err, module.ErrInvalidProperty) {
		t.Fatalf("expected ErrInvalidProperty, got %v", err)
	}

	_, err = r.Build("Checker/TreeWalker/NPathComplexity",
		module.New("NPathComplexity").Set("maximum", "3"), Prepare("", violation.SeverityError))
	if !errors.Is(err, module.ErrUnknownProperty) {
		t.Fatalf("expected ErrUnknownProperty, got %v", err)
	}
}

func TestDefaultRegistry(t *testing.T) {
	names := DefaultRegistry().Names()
	expected := []string{
		"BooleanExpressionComplexity", "ClassDataAbstractionCoupling", "ClassFanOutComplexity",
		"CyclomaticComplexity", "EmptyCatchBlock", "JavaNCSS", "MethodLength",
		"NPathComplexity", "NestedDepth", "ParameterNumber",
	}
	if diff := cmp.Diff(expected, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// CyclomaticComplexity
// ---------------------------------------------------------------------------

func TestCyclomaticBaseline(t *testing.T) {
	cc := NewCyclomaticComplexity()
	cc.Max = 0
	got := messages(walkTree(method(slist()), cc))
	want := []string{"Cyclomatic Complexity is 1 (max allowed is 0)."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	got = messages(walkTree(method(slist(ifElse("a", slist(), nil))), cc))
	want = []string{"Cyclomatic Complexity is 2 (max allowed is 0)."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func switchTree() *ast.Node {
	caseLabel := func() *ast.Node { return ast.Tree(ast.KindCase, expr(ast.Leaf(ast.KindNumLiteral, "1"))) }
	return ast.Tree(ast.KindSwitch,
		expr(ident("k")),
		ast.Tree(ast.KindCaseGroup, caseLabel(), slist()),
		ast.Tree(ast.KindCaseGroup, caseLabel(), caseLabel(), slist()),
		ast.Tree(ast.KindCaseGroup, ast.Leaf(ast.KindDefault, ""), slist()),
	)
}

func TestCyclomaticSwitch(t *testing.T) {
	cc := NewCyclomaticComplexity()
	cc.Max = 0
	got := messages(walkTree(method(slist(switchTree())), cc))
	if want := "Cyclomatic Complexity is 4 (max allowed is 0)."; len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want %q", got, want)
	}

	cc.SwitchBlockAsSingleDecisionPoint = true
	got = messages(walkTree(method(slist(switchTree())), cc))
	if want := "Cyclomatic Complexity is 2 (max allowed is 0)."; len(got) != 1 || got[0] != want {
		t.Fatalf("got %v, want %q", got, want)
	}
}

func TestCyclomaticLambdaScoredSeparately(t *testing.T) {
	lambda := ast.Tree(ast.KindLambda,
		ast.Leaf(ast.KindParameters, ""),
		slist(ifElse("a", slist(), nil), ifElse("b", slist(), nil)),
	).At(4, 20)
	cc := NewCyclomaticComplexity()
	cc.Max = 2

	got := walkTree(method(slist(expr(lambda))), cc)
	if len(got) != 1 {
		t.Fatalf("expected only the lambda to be reported, got %v", got)
	}
	if got[0].Line != 4 || got[0].Message != "Cyclomatic Complexity is 3 (max allowed is 2)." {
		t.Fatalf("unexpected violation: %+v", got[0])
	}
}

func TestCyclomaticIgnoresFieldInitializers(t *testing.T) {
	source := `class A {
    int x = true ? 1 : 2;
    Runnable r = new Runnable() {
        int y = false ? 3 : 4;
        public void run() { if (x > 0) { } }
    };
}
`
	cc := NewCyclomaticComplexity()
	cc.Max = 1
	got := walkJava(t, source, cc)
	if len(got) != 1 || got[0].Line != 5 {
		t.Fatalf("expected only run() to be reported, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// NPathComplexity
// ---------------------------------------------------------------------------

func TestNPathSequentialIfs(t *testing.T) {
	body := slist(ifElse("a", slist(), nil), ifElse("b", slist(), nil))
	if got := NPath(body); got != 4 {
		t.Fatalf("NPath = %d, want 4", got)
	}
}

func elseIfChains(n int) *ast.Node {
	body := slist()
	for range n {
		body.AddChild(ifElse("a", slist(), ifElse("b", slist(), slist())))
	}
	return body
}

func TestNPathLargeValue(t *testing.T) {
	if got := NPath(elseIfChains(20)); got != 3486784401 {
		t.Fatalf("NPath = %d, want 3486784401", got)
	}

	np := NewNPathComplexity()
	got := messages(walkTree(method(elseIfChains(20)), np))
	want := []string{"NPath Complexity is 3,486,784,401 (max allowed is 200)."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestNPathSaturates(t *testing.T) {
	if got := NPath(elseIfChains(50)); got != math.MaxUint64 {
		t.Fatalf("NPath = %d, want saturation at MaxUint64", got)
	}
	np := NewNPathComplexity()
	got := messages(walkTree(method(elseIfChains(50)), np))
	if len(got) != 1 || !strings.HasPrefix(got[0], "NPath Complexity is 18,446,744,073,709,551,615 ") {
		t.Fatalf("unexpected messages: %v", got)
	}
}

func TestNPathConstructs(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   uint64
	}{
		{"empty", `{ }`, 1},
		{"boolean ops in condition", `{ if (a && b || c) { } }`, 4},
		{"while", `{ while (a) { x(); } }`, 2},
		{"ternary", `{ int v = a ? 1 : 2; }`, 2},
		{"nested ternary", `{ int v = a ? (b ? 1 : 2) : 3; }`, 3},
		{"switch", `{ switch (k) { case 1: x(); break; case 2: break; default: y(); } }`, 3},
		{"try catch finally", `{ try { x(); } catch (Exception e) { } finally { if (a) { } } }`, 4},
		{"lambda folds to one", `{ Runnable r = () -> { if (a) { } if (b) { } }; }`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := "class A { void m(boolean a, boolean b, boolean c, int k) " + tt.source + " }"
			root, err := javaparse.Parse(context.Background(), []byte(source))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			var body *ast.Node
			root.Walk(func(n *ast.Node) bool {
				if body == nil && n.Kind == ast.KindMethodDef {
					body = n.FindChild(ast.KindSList)
				}
				return body == nil
			})
			if got := NPath(body); got != tt.want {
				t.Fatalf("NPath = %d, want %d\n%s", got, tt.want, ast.Dump(body))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// JavaNCSS
// ---------------------------------------------------------------------------

func TestNCSSCounts(t *testing.T) {
	m := ast.Tree(ast.KindMethodDef,
		ast.Leaf(ast.KindModifiers, ""),
		ident("m"),
		ast.Leaf(ast.KindParameters, ""),
		slist(
			ast.Tree(ast.KindVariableDef, ident("x")),
			expr(ast.Leaf(ast.KindMethodCall, "call")),
			ifElse("a",
				slist(ast.Leaf(ast.KindReturn, "")),
				ifElse("b", slist(), nil),
			),
		),
	).At(4, 2).Named("m")
	root := ast.Tree(ast.KindClassDef,
		ast.Leaf(ast.KindModifiers, ""),
		ident("A"),
		ast.Tree(ast.KindObjBlock, ast.Tree(ast.KindVariableDef, ident("f")), m),
	).At(2, 0).Named("A")

	ncss := NewJavaNCSS()
	ncss.MethodMaximum = 5
	ncss.ClassMaximum = 7
	ncss.FileMaximum = 7

	got := messages(walkTree(root, ncss))
	want := []string{
		"NCSS for this file is 8 (max allowed is 7).",
		"NCSS for this class is 8 (max allowed is 7).",
		"NCSS for this method is 6 (max allowed is 5).",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestNCSSRecordMaximum(t *testing.T) {
	source := `record P(int x) {
    P {
        int a = x;
        int b = a;
    }
}
`
	ncss := NewJavaNCSS()
	ncss.RecordMaximum = 3
	got := messages(walkJava(t, source, ncss))
	want := []string{"NCSS for this record is 4 (max allowed is 3)."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestNCSSReportsFirstBadMaximum(t *testing.T) {
	cfg := module.New("JavaNCSS").Set("fileMaximum", "-1").Set("classMaximum", "x").Set("methodMaximum", "-3")
	for i := 0; i < 20; i++ {
		_, err := DefaultRegistry().Build("JavaNCSS", cfg, Prepare("", violation.SeverityError))
		var cfgErr *module.ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.Property != "methodMaximum" {
			t.Fatalf("expected a methodMaximum ConfigError, got %v", err)
		}
	}
}

// ---------------------------------------------------------------------------
// BooleanExpressionComplexity
// ---------------------------------------------------------------------------

func TestBooleanExpressionInnermostContext(t *testing.T) {
	arg := expr(ast.Tree(ast.KindLAnd, ident("x"), ident("y")))
	call := ast.Tree(ast.KindMethodCall, ast.Tree(ast.KindElist, arg))
	outer := expr(ast.Tree(ast.KindLOr,
		ast.Tree(ast.KindLAnd, ident("a"), ident("b")),
		ast.Tree(ast.KindLAnd, ident("c"), call),
	)).At(5, 8)

	c := NewBooleanExpressionComplexity()
	c.Max = 2
	got := walkTree(method(slist(outer)), c)
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %v", got)
	}
	if got[0].Line != 5 || got[0].Message != "Boolean expression complexity is 3 (max allowed is 2)." {
		t.Fatalf("unexpected violation: %+v", got[0])
	}
}

func TestBooleanExpressionTokens(t *testing.T) {
	source := `class A {
    boolean m(boolean a, boolean b) {
        return a & b | a ^ b && a;
    }
}
`
	c := NewBooleanExpressionComplexity()
	c.Max = 1
	if got := walkJava(t, source, c); len(got) != 0 {
		t.Fatalf("bitwise operators are not counted by default, got %v", got)
	}

	r := DefaultRegistry()
	m, err := r.Build("BooleanExpressionComplexity",
		module.New("BooleanExpressionComplexity").Set("tokens", "BAND, BOR, BXOR, LAND").Set("max", "1"),
		Prepare("", violation.SeverityError))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got := messages(walkJava(t, source, m.(Check)))
	want := []string{"Boolean expression complexity is 4 (max allowed is 1)."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Coupling
// ---------------------------------------------------------------------------

const fanOutSource = `package com.acme;

import java.util.List;
import com.other.Bar;

class Holder {
    private String name;
    private List<Foo> foos;
    private Bar bar;
}
`

func TestFanOutExclusions(t *testing.T) {
	c := NewClassFanOutComplexity()
	c.Max = 1
	got := walkJava(t, fanOutSource, c)
	if len(got) != 1 || got[0].Message != "Class Fan-Out Complexity is 2 (max allowed is 1)." {
		t.Fatalf("unexpected violations: %v", got)
	}
	if got[0].Line != 6 {
		t.Fatalf("expected violation at the class, got line %d", got[0].Line)
	}
	if diff := cmp.Diff([]string{"Bar", "Foo"}, c.Offending()); diff != "" {
		t.Fatalf("offending mismatch (-want +got):\n%s", diff)
	}
}

func TestFanOutExcludedPackages(t *testing.T) {
	c := NewClassFanOutComplexity()
	c.Max = 0
	c.ExcludedPackages = []string{"com.other"}
	got := walkJava(t, fanOutSource, c)
	if len(got) != 1 || got[0].Message != "Class Fan-Out Complexity is 1 (max allowed is 0)." {
		t.Fatalf("unexpected violations: %v", got)
	}
	if diff := cmp.Diff([]string{"Foo"}, c.Offending()); diff != "" {
		t.Fatalf("offending mismatch (-want +got):\n%s", diff)
	}
}

func TestFanOutIgnoresTypeParameters(t *testing.T) {
	source := `class Box<T> {
    private T value;
    <R> R map(java.util.function.Function<T, R> f) { return null; }
}
`
	c := NewClassFanOutComplexity()
	c.Max = 0
	got := walkJava(t, source, c)
	if len(got) != 1 {
		t.Fatalf("unexpected violations: %v", got)
	}
	if diff := cmp.Diff([]string{"java.util.function.Function"}, c.Offending()); diff != "" {
		t.Fatalf("offending mismatch (-want +got):\n%s", diff)
	}
}

func TestDataAbstractionCoupling(t *testing.T) {
	source := `class Factory {
    Object a = new ArrayList<String>();
    Object b = new Foo();
    Object c = new Bar() { };
    Object d = new Foo();
}
`
	c := NewClassDataAbstractionCoupling()
	c.Max = 0
	got := messages(walkJava(t, source, c))
	want := []string{"Class Data Abstraction Coupling is 1 (max allowed is 0) classes [Foo]."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestCouplingSkipsPrimitivesWithCustomExclusions(t *testing.T) {
	source := `class Prims {
    int x;
    long y;
    void m(boolean b) { int[] a = new int[3]; var v = new Foo(); }
}
`
	r := DefaultRegistry()
	for _, name := range []string{"ClassFanOutComplexity", "ClassDataAbstractionCoupling"} {
		t.Run(name, func(t *testing.T) {
			m, err := r.Build(name,
				module.New(name).Set("max", "0").Set("excludedClasses", "Bar"),
				Prepare("", violation.SeverityError))
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			got := walkJava(t, source, m.(Check))
			if len(got) != 1 {
				t.Fatalf("expected one violation, got %v", got)
			}
			var offending []string
			switch c := m.(type) {
			case *ClassFanOutComplexity:
				offending = c.Offending()
			case *ClassDataAbstractionCoupling:
				offending = c.Offending()
			}
			if diff := cmp.Diff([]string{"Foo"}, offending); diff != "" {
				t.Fatalf("offending mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCouplingRejectsBadPackage(t *testing.T) {
	_, err := DefaultRegistry().Build("ClassFanOutComplexity",
		module.New("ClassFanOutComplexity").Set("excludedPackages", "com..acme"),
		Prepare("", violation.SeverityError))
	if !errors.Is(err, module.ErrInvalidProperty) {
		t.Fatalf("expected ErrInvalidProperty, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Structural checks
// ---------------------------------------------------------------------------

func TestMethodLength(t *testing.T) {
	source := `class A {
  void m() {
    int a = 1;

    // comment
    int b = 2;
  }
}
`
	c := NewMethodLength()
	c.Max = 3
	got := messages(walkJava(t, source, c))
	if want := []string{"Method m length is 6 lines (max allowed is 3)."}; !cmp.Equal(want, got) {
		t.Fatalf("got %v, want %v", got, want)
	}

	c.CountEmpty = false
	got = messages(walkJava(t, source, c))
	if want := []string{"Method m length is 4 lines (max allowed is 3)."}; !cmp.Equal(want, got) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNestedDepth(t *testing.T) {
	source := `class A {
  void m(boolean a) {
    if (a) {
      while (a) {
        for (;;) { }
      }
    } else if (a) {
    }
  }
}
`
	c := NewNestedDepth()
	c.Max = 1
	got := walkJava(t, source, c)
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %v", got)
	}
	if got[0].Line != 4 || got[0].Message != "Nested depth is 2 (max allowed is 1)." {
		t.Fatalf("unexpected violation: %+v", got[0])
	}
}

func TestParameterNumber(t *testing.T) {
	source := `class A {
  void three(int a, int b, int c) { }
  @Override
  public boolean equals(Object a, Object b, Object c) { return false; }
}
`
	c := NewParameterNumber()
	c.Max = 2
	if got := walkJava(t, source, c); len(got) != 2 {
		t.Fatalf("expected two violations, got %v", got)
	}

	c.IgnoreOverriddenMethods = true
	got := walkJava(t, source, c)
	if len(got) != 1 || got[0].Line != 2 || got[0].Message != "More than 2 parameters (found 3)." {
		t.Fatalf("unexpected violations: %v", got)
	}
}

func TestEmptyCatchBlock(t *testing.T) {
	source := `class A {
  void m() {
    try { x(); } catch (Exception e) { }
    try { x(); } catch (Exception ignored) { }
    try { x(); } catch (Exception e) {
      // deliberately empty
    }
    try { x(); } catch (Exception e) { x(); }
  }
}
`
	c := NewEmptyCatchBlock()
	c.ExceptionVariableName = regexp2.MustCompile("^ignored$", regexp2.None)
	got := walkJava(t, source, c)
	if len(got) != 1 || got[0].Line != 3 || got[0].Message != "Empty catch block." {
		t.Fatalf("unexpected violations: %v", got)
	}
}
