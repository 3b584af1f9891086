// Package javaparse lowers tree-sitter Java parse trees into ast nodes.
//
// The lowering produces a fixed shape that the checks rely on: control
// statements own their condition as an EXPR child and their bodies as SLIST
// (brace-less bodies are wrapped), else-if chains nest a LITERAL_IF inside
// LITERAL_ELSE, switch bodies are CASE_GROUP or SWITCH_RULE nodes, and every
// type reference is a TYPE node whose text is the type name without
// arguments or array dimensions.
package javaparse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/chris-regnier/warden/internal/ast"
)

// SyntaxError reports the first unparsable region of a file.
type SyntaxError struct {
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Near)
}

// Parse parses Java source and returns the lowered compilation unit.
func Parse(ctx context.Context, src []byte) (*ast.Node, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing java: %w", err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, firstError(root, src)
	}
	l := &lowerer{src: src}
	return l.compilationUnit(root), nil
}

func firstError(n *sitter.Node, src []byte) error {
	var found *sitter.Node
	var rec func(*sitter.Node)
	rec = func(c *sitter.Node) {
		if found != nil || c == nil {
			return
		}
		if c.IsMissing() || c.Type() == "ERROR" {
			found = c
			return
		}
		for i := 0; i < int(c.ChildCount()); i++ {
			rec(c.Child(i))
		}
	}
	rec(n)
	if found == nil {
		found = n
	}
	near := found.Content(src)
	if len(near) > 40 {
		near = near[:40]
	}
	if found.IsMissing() {
		near = "missing " + found.Type()
	}
	return &SyntaxError{
		Line:   int(found.StartPoint().Row) + 1,
		Column: int(found.StartPoint().Column) + 1,
		Near:   near,
	}
}
