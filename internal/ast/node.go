// Package ast defines the syntax tree consumed by the check engine.
//
// Trees are built once per file by a front end (see internal/javaparse) or
// by hand with Tree and Leaf, and are read-only while checks run over them.
package ast

import (
	"fmt"
	"strings"
)

// Node is one element of a syntax tree. Line is 1-based; Column is the
// 0-based offset of the node's first character within its line. EndLine is
// the line of the node's last character, or 0 when the front end does not
// record it.
type Node struct {
	Kind    Kind
	Text    string
	Line    int
	Column  int
	EndLine int

	parent   *Node
	index    int
	children []*Node
}

// Tree returns a node of the given kind that owns children in order.
func Tree(kind Kind, children ...*Node) *Node {
	n := &Node{Kind: kind}
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

// Leaf returns a childless node carrying text.
func Leaf(kind Kind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

// At sets the node position and returns n.
func (n *Node) At(line, column int) *Node {
	n.Line = line
	n.Column = column
	return n
}

// Named sets the node text and returns n.
func (n *Node) Named(text string) *Node {
	n.Text = text
	return n
}

// AddChild appends c to n's children. A nil child is ignored. Adding a node
// that already has a parent panics.
func (n *Node) AddChild(c *Node) *Node {
	if c == nil {
		return n
	}
	if c.parent != nil {
		panic(fmt.Sprintf("ast: %s already has a parent", c.Kind))
	}
	c.parent = n
	c.index = len(n.children)
	n.children = append(n.children, c)
	return n
}

func (n *Node) Parent() *Node { return n.parent }

// Index is the position of n among its parent's children.
func (n *Node) Index() int { return n.index }

func (n *Node) Children() []*Node { return n.children }

func (n *Node) NumChildren() int { return len(n.children) }

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *Node) FirstChild() *Node { return n.Child(0) }

func (n *Node) LastChild() *Node { return n.Child(len(n.children) - 1) }

func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.Child(n.index + 1)
}

func (n *Node) PrevSibling() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.Child(n.index - 1)
}

// FindChild returns the first direct child of the given kind.
func (n *Node) FindChild(kind Kind) *Node {
	for _, c := range n.children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOf returns the direct children of the given kind.
func (n *Node) ChildrenOf(kind Kind) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// HasAncestor reports whether some proper ancestor of n has the given kind.
func (n *Node) HasAncestor(kind Kind) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// LastLine returns EndLine, or the greatest line found in the subtree when
// EndLine is unknown.
func (n *Node) LastLine() int {
	if n.EndLine > 0 {
		return n.EndLine
	}
	last := n.Line
	n.Walk(func(c *Node) bool {
		last = max(last, c.Line, c.EndLine)
		return true
	})
	return last
}

// Name returns the text of the first IDENT child, or the node text.
func (n *Node) Name() string {
	if id := n.FindChild(KindIdent); id != nil {
		return id.Text
	}
	return n.Text
}

// Validate checks the parent/index invariants of the tree rooted at root.
func Validate(root *Node) error {
	if root.parent != nil {
		return fmt.Errorf("ast: root %s has a parent", root.Kind)
	}
	var err error
	seen := make(map[*Node]bool)
	root.Walk(func(n *Node) bool {
		if err != nil {
			return false
		}
		if seen[n] {
			err = fmt.Errorf("ast: %s at %d:%d reachable twice", n.Kind, n.Line, n.Column)
			return false
		}
		seen[n] = true
		for i, c := range n.children {
			if c.parent != n || c.index != i {
				err = fmt.Errorf("ast: %s child %d has inconsistent parent link", n.Kind, i)
				return false
			}
		}
		return true
	})
	return err
}

// Dump renders the tree one node per line, indented by depth.
func Dump(root *Node) string {
	var b strings.Builder
	var rec func(n *Node, depth int)
	rec = func(n *Node, depth int) {
		fmt.Fprintf(&b, "%s%s", strings.Repeat("  ", depth), n.Kind)
		if n.Text != "" {
			fmt.Fprintf(&b, " %q", n.Text)
		}
		fmt.Fprintf(&b, " [%d:%d]\n", n.Line, n.Column)
		for _, c := range n.children {
			rec(c, depth+1)
		}
	}
	rec(root, 0)
	return b.String()
}
