package javaparse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/warden/internal/ast"
)

type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

// at creates a node positioned at the start of n.
func (l *lowerer) at(kind ast.Kind, n *sitter.Node, text string) *ast.Node {
	p := n.StartPoint()
	node := ast.Leaf(kind, text).At(int(p.Row)+1, int(p.Column))
	node.EndLine = int(n.EndPoint().Row) + 1
	return node
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case "line_comment", "block_comment", "comment":
		return true
	}
	return false
}

// named returns the named, non-comment children of n.
func named(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if !isComment(c) {
			out = append(out, c)
		}
	}
	return out
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (l *lowerer) compilationUnit(n *sitter.Node) *ast.Node {
	root := ast.Leaf(ast.KindCompilationUnit, "").At(1, 0)
	for _, c := range named(n) {
		switch c.Type() {
		case "package_declaration":
			pkg := l.at(ast.KindPackageDef, c, "")
			for _, p := range named(c) {
				if p.Type() == "identifier" || p.Type() == "scoped_identifier" {
					pkg.Text = l.text(p)
				}
			}
			root.AddChild(pkg)
		case "import_declaration":
			root.AddChild(l.importDecl(c))
		default:
			if def := l.typeDecl(c); def != nil {
				root.AddChild(def)
			}
		}
	}
	return root
}

func (l *lowerer) importDecl(n *sitter.Node) *ast.Node {
	kind := ast.KindImport
	if childOfType(n, "static") != nil {
		kind = ast.KindStaticImport
	}
	var name string
	for _, c := range named(n) {
		switch c.Type() {
		case "identifier", "scoped_identifier":
			name = l.text(c)
		case "asterisk":
			name += ".*"
		}
	}
	return l.at(kind, n, name)
}

var typeDeclKinds = map[string]ast.Kind{
	"class_declaration":           ast.KindClassDef,
	"interface_declaration":       ast.KindInterfaceDef,
	"enum_declaration":            ast.KindEnumDef,
	"record_declaration":          ast.KindRecordDef,
	"annotation_type_declaration": ast.KindAnnotationDef,
}

// typeDecl lowers a named type declaration, or returns nil when n is not one.
func (l *lowerer) typeDecl(n *sitter.Node) *ast.Node {
	kind, ok := typeDeclKinds[n.Type()]
	if !ok {
		return nil
	}
	var name string
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		name = l.text(nameNode)
	}
	def := l.at(kind, n, name)
	def.AddChild(l.modifiers(n))
	if nameNode != nil {
		def.AddChild(l.at(ast.KindIdent, nameNode, name))
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		def.AddChild(l.typeParameters(tp))
	}
	for _, c := range named(n) {
		switch c.Type() {
		case "superclass":
			def.AddChild(l.typeClause(ast.KindExtendsClause, c))
		case "extends_interfaces":
			def.AddChild(l.typeClause(ast.KindExtendsClause, c))
		case "super_interfaces":
			def.AddChild(l.typeClause(ast.KindImplementsClause, c))
		case "permits":
			def.AddChild(l.typeClause(ast.KindPermitsClause, c))
		}
	}
	if kind == ast.KindRecordDef {
		if params := n.ChildByFieldName("parameters"); params != nil {
			def.AddChild(l.recordComponents(params))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		def.AddChild(l.classBody(body))
	}
	return def
}

func (l *lowerer) typeClause(kind ast.Kind, n *sitter.Node) *ast.Node {
	clause := l.at(kind, n, "")
	l.collectTypes(clause, n)
	return clause
}

// collectTypes appends every type found directly in n or its type_list.
func (l *lowerer) collectTypes(dst *ast.Node, n *sitter.Node) {
	for _, c := range named(n) {
		if c.Type() == "type_list" || c.Type() == "catch_type" {
			l.collectTypes(dst, c)
			continue
		}
		if isType(c) {
			dst.AddChild(l.typ(c))
		}
	}
}

func (l *lowerer) recordComponents(n *sitter.Node) *ast.Node {
	comps := l.at(ast.KindRecordComponents, n, "")
	for _, p := range named(n) {
		if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
			continue
		}
		param := l.parameter(p)
		comp := l.at(ast.KindRecordComponentDef, p, param.Text)
		for _, c := range param.Children() {
			comp.AddChild(detach(c))
		}
		comps.AddChild(comp)
	}
	return comps
}

// detach returns a copy of n without a parent so it can be re-homed.
func detach(n *ast.Node) *ast.Node {
	cp := ast.Leaf(n.Kind, n.Text).At(n.Line, n.Column)
	cp.EndLine = n.EndLine
	for _, c := range n.Children() {
		cp.AddChild(detach(c))
	}
	return cp
}

// modifiers lowers the modifiers child of n. A MODIFIERS node is always
// returned; it is empty and positioned at n when no modifiers are written.
func (l *lowerer) modifiers(n *sitter.Node) *ast.Node {
	m := childOfType(n, "modifiers")
	if m == nil {
		return l.at(ast.KindModifiers, n, "")
	}
	mods := l.at(ast.KindModifiers, m, "")
	var words []string
	for i := 0; i < int(m.ChildCount()); i++ {
		c := m.Child(i)
		switch c.Type() {
		case "annotation", "marker_annotation":
			var name string
			if nn := c.ChildByFieldName("name"); nn != nil {
				name = l.text(nn)
			}
			mods.AddChild(l.at(ast.KindAnnotation, c, name))
		case "line_comment", "block_comment":
		default:
			words = append(words, l.text(c))
		}
	}
	mods.Text = strings.Join(words, " ")
	return mods
}

func (l *lowerer) classBody(n *sitter.Node) *ast.Node {
	obj := l.at(ast.KindObjBlock, n, "")
	l.members(obj, n)
	return obj
}

func (l *lowerer) members(obj *ast.Node, n *sitter.Node) {
	for _, c := range named(n) {
		switch c.Type() {
		case "enum_constant":
			obj.AddChild(l.enumConstant(c))
		case "enum_body_declarations":
			l.members(obj, c)
		case "field_declaration", "constant_declaration":
			for _, v := range l.variables(c) {
				obj.AddChild(v)
			}
		case "method_declaration", "annotation_type_element_declaration":
			obj.AddChild(l.method(ast.KindMethodDef, c))
		case "constructor_declaration":
			obj.AddChild(l.method(ast.KindCtorDef, c))
		case "compact_constructor_declaration":
			obj.AddChild(l.method(ast.KindCompactCtorDef, c))
		case "static_initializer":
			init := l.at(ast.KindStaticInit, c, "")
			if b := childOfType(c, "block"); b != nil {
				init.AddChild(l.block(b))
			}
			obj.AddChild(init)
		case "block":
			obj.AddChild(ast.Tree(ast.KindInstanceInit, l.block(c)).At(l.pos(c)))
		default:
			if def := l.typeDecl(c); def != nil {
				obj.AddChild(def)
			}
		}
	}
}

func (l *lowerer) pos(n *sitter.Node) (int, int) {
	p := n.StartPoint()
	return int(p.Row) + 1, int(p.Column)
}

func (l *lowerer) enumConstant(n *sitter.Node) *ast.Node {
	var name string
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		name = l.text(nameNode)
	}
	ec := l.at(ast.KindEnumConstantDef, n, name)
	ec.AddChild(l.modifiers(n))
	if nameNode != nil {
		ec.AddChild(l.at(ast.KindIdent, nameNode, name))
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		ec.AddChild(l.arguments(args))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		ec.AddChild(l.classBody(body))
	}
	return ec
}

// variables lowers a field or local declaration to one VARIABLE_DEF per
// declarator.
func (l *lowerer) variables(n *sitter.Node) []*ast.Node {
	typeNode := n.ChildByFieldName("type")
	var out []*ast.Node
	for _, d := range named(n) {
		if d.Type() != "variable_declarator" {
			continue
		}
		out = append(out, l.declarator(n, typeNode, d))
	}
	return out
}

func (l *lowerer) declarator(decl, typeNode, d *sitter.Node) *ast.Node {
	var name string
	nameNode := d.ChildByFieldName("name")
	if nameNode != nil {
		name = l.text(nameNode)
	}
	v := l.at(ast.KindVariableDef, d, name)
	v.AddChild(l.modifiers(decl))
	if typeNode != nil {
		v.AddChild(l.typ(typeNode))
	}
	if nameNode != nil {
		v.AddChild(l.at(ast.KindIdent, nameNode, name))
	}
	if val := d.ChildByFieldName("value"); val != nil {
		v.AddChild(l.exprStmt(val))
	}
	return v
}

func (l *lowerer) method(kind ast.Kind, n *sitter.Node) *ast.Node {
	var name string
	nameNode := n.ChildByFieldName("name")
	if nameNode != nil {
		name = l.text(nameNode)
	}
	m := l.at(kind, n, name)
	m.AddChild(l.modifiers(n))
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		m.AddChild(l.typeParameters(tp))
	}
	if t := n.ChildByFieldName("type"); t != nil {
		m.AddChild(l.typ(t))
	}
	if nameNode != nil {
		m.AddChild(l.at(ast.KindIdent, nameNode, name))
	}
	if kind != ast.KindCompactCtorDef {
		params := n.ChildByFieldName("parameters")
		if params != nil {
			m.AddChild(l.parameters(params))
		} else {
			m.AddChild(l.at(ast.KindParameters, n, ""))
		}
	}
	if th := childOfType(n, "throws"); th != nil {
		m.AddChild(l.typeClause(ast.KindThrows, th))
	}
	if body := n.ChildByFieldName("body"); body != nil {
		m.AddChild(l.block(body))
	}
	return m
}

func (l *lowerer) parameters(n *sitter.Node) *ast.Node {
	params := l.at(ast.KindParameters, n, "")
	for _, p := range named(n) {
		switch p.Type() {
		case "formal_parameter", "spread_parameter":
			params.AddChild(l.parameter(p))
		case "identifier":
			params.AddChild(ast.Tree(ast.KindParameterDef,
				l.at(ast.KindModifiers, p, ""),
				l.at(ast.KindIdent, p, l.text(p)),
			).At(l.pos(p)).Named(l.text(p)))
		}
	}
	return params
}

func (l *lowerer) parameter(n *sitter.Node) *ast.Node {
	p := l.at(ast.KindParameterDef, n, "")
	p.AddChild(l.modifiers(n))
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		for _, c := range named(n) {
			if isType(c) {
				typeNode = c
				break
			}
		}
	}
	if typeNode != nil {
		p.AddChild(l.typ(typeNode))
	}
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		if d := childOfType(n, "variable_declarator"); d != nil {
			nameNode = d.ChildByFieldName("name")
		}
	}
	if nameNode != nil {
		p.Text = l.text(nameNode)
		p.AddChild(l.at(ast.KindIdent, nameNode, p.Text))
	}
	return p
}

func (l *lowerer) typeParameters(n *sitter.Node) *ast.Node {
	tps := l.at(ast.KindTypeParameters, n, "")
	for _, c := range named(n) {
		if c.Type() != "type_parameter" {
			continue
		}
		tp := l.at(ast.KindTypeParameter, c, "")
		for _, part := range named(c) {
			switch part.Type() {
			case "type_identifier", "identifier":
				tp.Text = l.text(part)
				tp.AddChild(l.at(ast.KindIdent, part, tp.Text))
			case "type_bound":
				for _, b := range named(part) {
					if isType(b) {
						tp.AddChild(l.typ(b))
					}
				}
			}
		}
		tps.AddChild(tp)
	}
	return tps
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

func isType(n *sitter.Node) bool {
	switch n.Type() {
	case "type_identifier", "scoped_type_identifier", "generic_type", "array_type",
		"integral_type", "floating_point_type", "boolean_type", "void_type", "annotated_type":
		return true
	}
	return false
}

// typ lowers a type reference. The TYPE text is the written name without
// type arguments, annotations or array dimensions.
func (l *lowerer) typ(n *sitter.Node) *ast.Node {
	switch n.Type() {
	case "array_type":
		if el := n.ChildByFieldName("element"); el != nil {
			return l.typ(el)
		}
	case "annotated_type":
		parts := named(n)
		for i := len(parts) - 1; i >= 0; i-- {
			if isType(parts[i]) {
				return l.typ(parts[i])
			}
		}
	case "generic_type":
		t := l.at(ast.KindType, n, "")
		for _, c := range named(n) {
			switch c.Type() {
			case "type_identifier", "scoped_type_identifier":
				t.Text = stripGenerics(l.text(c))
			case "type_arguments":
				t.AddChild(l.typeArguments(c))
			}
		}
		return t
	case "scoped_type_identifier":
		return l.at(ast.KindType, n, stripGenerics(l.text(n)))
	}
	return l.at(ast.KindType, n, l.text(n))
}

func (l *lowerer) typeArguments(n *sitter.Node) *ast.Node {
	args := l.at(ast.KindTypeArguments, n, "")
	for _, c := range named(n) {
		switch {
		case isType(c):
			args.AddChild(l.typ(c))
		case c.Type() == "wildcard":
			for _, b := range named(c) {
				if isType(b) {
					args.AddChild(l.typ(b))
				}
			}
		}
	}
	return args
}

// stripGenerics drops angle-bracketed arguments, annotations and
// whitespace from a qualified type name.
func stripGenerics(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			depth--
		case depth > 0, r == ' ', r == '\t', r == '\n', r == '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (l *lowerer) block(n *sitter.Node) *ast.Node {
	list := l.at(ast.KindSList, n, "")
	for _, c := range named(n) {
		l.statement(list, c)
	}
	return list
}

// body lowers a statement used as a control-statement body, wrapping it in
// an SLIST when it is not already a block.
func (l *lowerer) body(n *sitter.Node) *ast.Node {
	if n.Type() == "block" {
		return l.block(n)
	}
	list := l.at(ast.KindSList, n, "")
	if n.IsNamed() {
		l.statement(list, n)
	}
	return list
}

// exprStmt wraps an expression in an EXPR node.
func (l *lowerer) exprStmt(n *sitter.Node) *ast.Node {
	return ast.Tree(ast.KindExpr, l.expr(n)).At(l.pos(n))
}

// condition lowers a parenthesized condition to EXPR.
func (l *lowerer) condition(n *sitter.Node) *ast.Node {
	if n.Type() == "parenthesized_expression" || n.Type() == "condition" {
		if inner := named(n); len(inner) > 0 {
			return ast.Tree(ast.KindExpr, l.expr(inner[0])).At(l.pos(inner[0]))
		}
	}
	return l.exprStmt(n)
}

// statement appends the lowering of n to parent. Local declarations may
// contribute several nodes.
func (l *lowerer) statement(parent *ast.Node, n *sitter.Node) {
	switch n.Type() {
	case "local_variable_declaration":
		for _, v := range l.variables(n) {
			parent.AddChild(v)
		}
	case "block":
		parent.AddChild(l.block(n))
	case "expression_statement":
		if inner := named(n); len(inner) > 0 {
			parent.AddChild(l.exprStmt(inner[0]))
		}
	case "explicit_constructor_invocation":
		call := l.at(ast.KindMethodCall, n, "")
		if ctor := n.ChildByFieldName("constructor"); ctor != nil {
			call.Text = l.text(ctor)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			call.AddChild(l.arguments(args))
		}
		parent.AddChild(ast.Tree(ast.KindExpr, call).At(l.pos(n)))
	case "if_statement":
		parent.AddChild(l.ifStatement(n))
	case "while_statement":
		w := l.at(ast.KindWhile, n, "")
		w.AddChild(l.condition(n.ChildByFieldName("condition")))
		w.AddChild(l.body(n.ChildByFieldName("body")))
		parent.AddChild(w)
	case "do_statement":
		d := l.at(ast.KindDo, n, "")
		d.AddChild(l.body(n.ChildByFieldName("body")))
		d.AddChild(l.condition(n.ChildByFieldName("condition")))
		parent.AddChild(d)
	case "for_statement":
		parent.AddChild(l.forStatement(n))
	case "enhanced_for_statement":
		parent.AddChild(l.forEach(n))
	case "switch_expression", "switch_statement":
		parent.AddChild(l.switchNode(n))
	case "return_statement":
		parent.AddChild(l.jump(ast.KindReturn, n))
	case "throw_statement":
		parent.AddChild(l.jump(ast.KindThrow, n))
	case "yield_statement":
		parent.AddChild(l.jump(ast.KindYield, n))
	case "break_statement", "continue_statement":
		kind := ast.KindBreak
		if n.Type() == "continue_statement" {
			kind = ast.KindContinue
		}
		j := l.at(kind, n, "")
		if id := childOfType(n, "identifier"); id != nil {
			j.AddChild(l.at(ast.KindIdent, id, l.text(id)))
		}
		parent.AddChild(j)
	case "try_statement", "try_with_resources_statement":
		parent.AddChild(l.tryStatement(n))
	case "synchronized_statement":
		s := l.at(ast.KindSynchronized, n, "")
		for _, c := range named(n) {
			switch c.Type() {
			case "parenthesized_expression":
				s.AddChild(l.condition(c))
			case "block":
				s.AddChild(l.block(c))
			}
		}
		parent.AddChild(s)
	case "labeled_statement":
		parts := named(n)
		lab := l.at(ast.KindLabeledStat, n, "")
		for _, c := range parts {
			if c.Type() == "identifier" && lab.NumChildren() == 0 {
				lab.Text = l.text(c)
				lab.AddChild(l.at(ast.KindIdent, c, lab.Text))
				continue
			}
			l.statement(lab, c)
		}
		parent.AddChild(lab)
	case "assert_statement":
		a := l.at(ast.KindAssert, n, "")
		for _, c := range named(n) {
			a.AddChild(l.exprStmt(c))
		}
		parent.AddChild(a)
	default:
		if def := l.typeDecl(n); def != nil {
			parent.AddChild(def)
			return
		}
		parent.AddChild(l.at(ast.KindUnknown, n, n.Type()))
	}
}

func (l *lowerer) jump(kind ast.Kind, n *sitter.Node) *ast.Node {
	j := l.at(kind, n, "")
	if inner := named(n); len(inner) > 0 {
		j.AddChild(l.exprStmt(inner[0]))
	}
	return j
}

func (l *lowerer) ifStatement(n *sitter.Node) *ast.Node {
	stmt := l.at(ast.KindIf, n, "")
	stmt.AddChild(l.condition(n.ChildByFieldName("condition")))
	stmt.AddChild(l.body(n.ChildByFieldName("consequence")))
	alt := n.ChildByFieldName("alternative")
	if alt == nil {
		return stmt
	}
	elseNode := childOfType(n, "else")
	if elseNode == nil {
		elseNode = alt
	}
	els := l.at(ast.KindElse, elseNode, "")
	if alt.Type() == "if_statement" {
		els.AddChild(l.ifStatement(alt))
	} else {
		els.AddChild(l.body(alt))
	}
	stmt.AddChild(els)
	return stmt
}

func (l *lowerer) forStatement(n *sitter.Node) *ast.Node {
	stmt := l.at(ast.KindFor, n, "")
	init := l.at(ast.KindForInit, n, "")
	cond := l.at(ast.KindForCondition, n, "")
	iter := l.at(ast.KindForIterator, n, "")
	var body *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() || isComment(c) {
			continue
		}
		switch n.FieldNameForChild(i) {
		case "init":
			if c.Type() == "local_variable_declaration" {
				for _, v := range l.variables(c) {
					init.AddChild(v)
				}
			} else {
				init.AddChild(l.exprStmt(c))
			}
		case "condition":
			cond.AddChild(l.exprStmt(c))
		case "update":
			iter.AddChild(l.exprStmt(c))
		case "body":
			body = c
		}
	}
	stmt.AddChild(init)
	stmt.AddChild(cond)
	stmt.AddChild(iter)
	if body != nil {
		stmt.AddChild(l.body(body))
	} else {
		stmt.AddChild(l.at(ast.KindSList, n, ""))
	}
	return stmt
}

func (l *lowerer) forEach(n *sitter.Node) *ast.Node {
	stmt := l.at(ast.KindFor, n, "")
	clause := l.at(ast.KindForEachClause, n, "")
	v := l.at(ast.KindVariableDef, n, "")
	v.AddChild(l.modifiers(n))
	if t := n.ChildByFieldName("type"); t != nil {
		v.AddChild(l.typ(t))
	}
	if name := n.ChildByFieldName("name"); name != nil {
		v.Text = l.text(name)
		v.AddChild(l.at(ast.KindIdent, name, v.Text))
	}
	clause.AddChild(v)
	if val := n.ChildByFieldName("value"); val != nil {
		clause.AddChild(l.exprStmt(val))
	}
	stmt.AddChild(clause)
	if body := n.ChildByFieldName("body"); body != nil {
		stmt.AddChild(l.body(body))
	}
	return stmt
}

func (l *lowerer) switchNode(n *sitter.Node) *ast.Node {
	sw := l.at(ast.KindSwitch, n, "")
	if cond := n.ChildByFieldName("condition"); cond != nil {
		sw.AddChild(l.condition(cond))
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return sw
	}
	for _, c := range named(body) {
		switch c.Type() {
		case "switch_block_statement_group":
			group := l.at(ast.KindCaseGroup, c, "")
			var list *ast.Node
			for _, part := range named(c) {
				if part.Type() == "switch_label" {
					group.AddChild(l.switchLabel(part))
					continue
				}
				if list == nil {
					list = l.at(ast.KindSList, part, "")
				}
				l.statement(list, part)
			}
			if list == nil {
				list = l.at(ast.KindSList, c, "")
			}
			group.AddChild(list)
			sw.AddChild(group)
		case "switch_rule":
			rule := l.at(ast.KindSwitchRule, c, "")
			for _, part := range named(c) {
				switch part.Type() {
				case "switch_label":
					rule.AddChild(l.switchLabel(part))
				case "block":
					rule.AddChild(l.block(part))
				default:
					list := l.at(ast.KindSList, part, "")
					l.statement(list, part)
					rule.AddChild(list)
				}
			}
			sw.AddChild(rule)
		}
	}
	return sw
}

func (l *lowerer) switchLabel(n *sitter.Node) *ast.Node {
	if first := n.Child(0); first != nil && first.Type() == "default" {
		return l.at(ast.KindDefault, n, "")
	}
	c := l.at(ast.KindCase, n, "")
	for _, part := range named(n) {
		c.AddChild(l.exprStmt(part))
	}
	return c
}

func (l *lowerer) tryStatement(n *sitter.Node) *ast.Node {
	try := l.at(ast.KindTry, n, "")
	if res := n.ChildByFieldName("resources"); res != nil {
		spec := l.at(ast.KindResourceSpecification, res, "")
		for _, r := range named(res) {
			if r.Type() != "resource" {
				continue
			}
			if t := r.ChildByFieldName("type"); t != nil {
				v := l.at(ast.KindVariableDef, r, "")
				v.AddChild(l.modifiers(r))
				v.AddChild(l.typ(t))
				if name := r.ChildByFieldName("name"); name != nil {
					v.Text = l.text(name)
					v.AddChild(l.at(ast.KindIdent, name, v.Text))
				}
				if val := r.ChildByFieldName("value"); val != nil {
					v.AddChild(l.exprStmt(val))
				}
				spec.AddChild(v)
			} else if inner := named(r); len(inner) > 0 {
				spec.AddChild(l.exprStmt(inner[0]))
			}
		}
		try.AddChild(spec)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		try.AddChild(l.block(body))
	}
	for _, c := range named(n) {
		switch c.Type() {
		case "catch_clause":
			catch := l.at(ast.KindCatch, c, "")
			if fp := childOfType(c, "catch_formal_parameter"); fp != nil {
				p := l.at(ast.KindParameterDef, fp, "")
				p.AddChild(l.modifiers(fp))
				l.collectTypes(p, fp)
				if name := fp.ChildByFieldName("name"); name != nil {
					p.Text = l.text(name)
					p.AddChild(l.at(ast.KindIdent, name, p.Text))
				}
				catch.AddChild(p)
			}
			if body := c.ChildByFieldName("body"); body != nil {
				catch.AddChild(l.block(body))
			}
			try.AddChild(catch)
		case "finally_clause":
			fin := l.at(ast.KindFinally, c, "")
			if b := childOfType(c, "block"); b != nil {
				fin.AddChild(l.block(b))
			}
			try.AddChild(fin)
		}
	}
	return try
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryKinds = map[string]ast.Kind{
	"&&": ast.KindLAnd,
	"||": ast.KindLOr,
	"&":  ast.KindBAnd,
	"|":  ast.KindBOr,
	"^":  ast.KindBXor,
}

func (l *lowerer) expr(n *sitter.Node) *ast.Node {
	switch n.Type() {
	case "parenthesized_expression":
		if inner := named(n); len(inner) > 0 {
			return l.expr(inner[0])
		}
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		opText := ""
		e := l.at(ast.KindBinaryOp, n, "")
		if op != nil {
			opText = op.Type()
			e = l.at(ast.KindBinaryOp, op, opText)
		}
		if kind, ok := binaryKinds[opText]; ok {
			e.Kind = kind
		}
		if left := n.ChildByFieldName("left"); left != nil {
			e.AddChild(l.expr(left))
		}
		if right := n.ChildByFieldName("right"); right != nil {
			e.AddChild(l.expr(right))
		}
		return e
	case "unary_expression":
		opText := ""
		if op := n.ChildByFieldName("operator"); op != nil {
			opText = op.Type()
		}
		e := l.at(ast.KindUnaryOp, n, opText)
		if opText == "!" {
			e.Kind = ast.KindLNot
		}
		if operand := n.ChildByFieldName("operand"); operand != nil {
			e.AddChild(l.expr(operand))
		}
		return e
	case "update_expression":
		e := l.at(ast.KindUnaryOp, n, strings.Trim(l.text(n), " \t"))
		for _, c := range named(n) {
			e.Text = strings.ReplaceAll(e.Text, l.text(c), "")
			e.AddChild(l.expr(c))
		}
		return e
	case "assignment_expression":
		opText := "="
		if op := n.ChildByFieldName("operator"); op != nil {
			opText = op.Type()
		}
		e := l.at(ast.KindAssign, n, opText)
		if left := n.ChildByFieldName("left"); left != nil {
			e.AddChild(l.expr(left))
		}
		if right := n.ChildByFieldName("right"); right != nil {
			e.AddChild(l.expr(right))
		}
		return e
	case "ternary_expression":
		q := l.at(ast.KindQuestion, n, "")
		if qm := childOfType(n, "?"); qm != nil {
			q = l.at(ast.KindQuestion, qm, "")
		}
		for _, f := range []string{"condition", "consequence", "alternative"} {
			if c := n.ChildByFieldName(f); c != nil {
				q.AddChild(l.expr(c))
			}
		}
		return q
	case "lambda_expression":
		return l.lambda(n)
	case "method_invocation":
		call := l.at(ast.KindMethodCall, n, "")
		if name := n.ChildByFieldName("name"); name != nil {
			call.Text = l.text(name)
		}
		if obj := n.ChildByFieldName("object"); obj != nil {
			call.AddChild(l.expr(obj))
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			call.AddChild(l.arguments(args))
		}
		return call
	case "object_creation_expression":
		nw := l.at(ast.KindNew, n, "")
		if t := n.ChildByFieldName("type"); t != nil {
			typ := l.typ(t)
			nw.Text = typ.Text
			nw.AddChild(typ)
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			nw.AddChild(l.arguments(args))
		}
		if body := childOfType(n, "class_body"); body != nil {
			nw.AddChild(l.classBody(body))
		}
		return nw
	case "array_creation_expression":
		nw := l.at(ast.KindNew, n, "")
		if t := n.ChildByFieldName("type"); t != nil {
			typ := l.typ(t)
			nw.Text = typ.Text + "[]"
			nw.AddChild(typ)
		}
		dims := l.at(ast.KindElist, n, "")
		for _, c := range named(n) {
			switch c.Type() {
			case "dimensions_expr":
				for _, d := range named(c) {
					dims.AddChild(l.exprStmt(d))
				}
			case "array_initializer":
				for _, el := range named(c) {
					dims.AddChild(l.exprStmt(el))
				}
			}
		}
		nw.AddChild(dims)
		return nw
	case "array_initializer":
		list := l.at(ast.KindElist, n, "")
		for _, el := range named(n) {
			list.AddChild(l.exprStmt(el))
		}
		return list
	case "field_access":
		dot := l.at(ast.KindDot, n, l.text(n))
		if obj := n.ChildByFieldName("object"); obj != nil {
			dot.AddChild(l.expr(obj))
		}
		if f := n.ChildByFieldName("field"); f != nil {
			dot.AddChild(l.at(ast.KindIdent, f, l.text(f)))
		}
		return dot
	case "array_access":
		idx := l.at(ast.KindIndexOp, n, "")
		if a := n.ChildByFieldName("array"); a != nil {
			idx.AddChild(l.expr(a))
		}
		if i := n.ChildByFieldName("index"); i != nil {
			idx.AddChild(l.expr(i))
		}
		return idx
	case "cast_expression":
		cast := l.at(ast.KindTypecast, n, "")
		for _, c := range named(n) {
			if isType(c) {
				cast.AddChild(l.typ(c))
			}
		}
		if v := n.ChildByFieldName("value"); v != nil {
			cast.AddChild(l.expr(v))
		}
		return cast
	case "instanceof_expression":
		inst := l.at(ast.KindInstanceof, n, "")
		if left := n.ChildByFieldName("left"); left != nil {
			inst.AddChild(l.expr(left))
		}
		if right := n.ChildByFieldName("right"); right != nil && isType(right) {
			inst.AddChild(l.typ(right))
		}
		return inst
	case "switch_expression":
		return l.switchNode(n)
	case "method_reference", "class_literal":
		return l.at(ast.KindDot, n, l.text(n))
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal",
		"binary_integer_literal", "decimal_floating_point_literal", "hex_floating_point_literal":
		return l.at(ast.KindNumLiteral, n, l.text(n))
	case "string_literal", "text_block":
		return l.at(ast.KindStringLiteral, n, l.text(n))
	case "character_literal":
		return l.at(ast.KindCharLiteral, n, l.text(n))
	case "true":
		return l.at(ast.KindTrue, n, "true")
	case "false":
		return l.at(ast.KindFalse, n, "false")
	case "null_literal":
		return l.at(ast.KindNull, n, "null")
	case "this":
		return l.at(ast.KindThis, n, "this")
	case "identifier", "super":
		return l.at(ast.KindIdent, n, l.text(n))
	}
	u := l.at(ast.KindUnknown, n, n.Type())
	for _, c := range named(n) {
		u.AddChild(l.expr(c))
	}
	return u
}

func (l *lowerer) arguments(n *sitter.Node) *ast.Node {
	list := l.at(ast.KindElist, n, "")
	for _, a := range named(n) {
		list.AddChild(l.exprStmt(a))
	}
	return list
}

func (l *lowerer) lambda(n *sitter.Node) *ast.Node {
	lam := l.at(ast.KindLambda, n, "")
	if params := n.ChildByFieldName("parameters"); params != nil {
		switch params.Type() {
		case "identifier":
			p := l.at(ast.KindParameters, params, "")
			p.AddChild(ast.Tree(ast.KindParameterDef,
				l.at(ast.KindModifiers, params, ""),
				l.at(ast.KindIdent, params, l.text(params)),
			).At(l.pos(params)).Named(l.text(params)))
			lam.AddChild(p)
		default:
			lam.AddChild(l.parameters(params))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		if body.Type() == "block" {
			lam.AddChild(l.block(body))
		} else {
			lam.AddChild(l.exprStmt(body))
		}
	}
	return lam
}
