package astcheck

import (
	"fmt"
	"log/slog"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/violation"
)

// Walker runs a fixed, ordered set of checks over one tree at a time.
// A Walker is not safe for concurrent use.
type Walker struct {
	checks []Check
	logger *slog.Logger

	failed []bool
	faults violation.List
}

// NewWalker creates a walker that dispatches to checks in the given order.
func NewWalker(checks ...Check) *Walker {
	for _, c := range checks {
		activate(c)
	}
	return &Walker{
		checks: checks,
		logger: slog.Default(),
		failed: make([]bool, len(checks)),
	}
}

// WithLogger sets the logger used to report check faults.
func (w *Walker) WithLogger(l *slog.Logger) *Walker {
	w.logger = l
	return w
}

// Checks returns the checks in dispatch order.
func (w *Walker) Checks() []Check { return w.checks }

// Walk runs every check over root: BeginFile on each, one pre-order pass
// calling Enter and Exit on the checks whose kinds contain the node kind,
// then EndFile. A panicking check is reported as a single violation and
// skipped for the rest of the file; the other checks carry on.
func (w *Walker) Walk(fc *FileContext, root *ast.Node) violation.List {
	clear(w.failed)
	w.faults = nil

	for i, c := range w.checks {
		c.base().reset(fc)
		w.run(i, nil, func() { c.BeginFile(fc) })
	}
	if root != nil {
		w.visit(root)
	}
	for i, c := range w.checks {
		w.run(i, nil, c.EndFile)
	}

	var out violation.List
	for _, c := range w.checks {
		out = append(out, c.base().drain()...)
	}
	out = append(out, w.faults...)
	return out.Normalize()
}

func (w *Walker) visit(n *ast.Node) {
	for i, c := range w.checks {
		if c.base().kinds.Has(n.Kind) {
			w.run(i, n, func() { c.Enter(n) })
		}
	}
	for _, child := range n.Children() {
		w.visit(child)
	}
	for i, c := range w.checks {
		if c.base().kinds.Has(n.Kind) {
			w.run(i, n, func() { c.Exit(n) })
		}
	}
}

func (w *Walker) run(i int, n *ast.Node, hook func()) {
	if w.failed[i] {
		return
	}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		w.failed[i] = true
		c := w.checks[i]
		line, col := 1, 0
		if n != nil {
			line, col = n.Line, n.Column+1
		}
		meta := c.base().meta
		meta.Severity = violation.SeverityError
		w.faults = append(w.faults, meta.At(line, col, fmt.Sprintf("Check %s failed: %v", c.Name(), r)))

		path := ""
		if f := c.base().file; f != nil {
			path = f.Path
		}
		w.logger.Warn("check failed", "check", c.Name(), "file", path, "line", line, "panic", r)
	}()
	hook()
}
