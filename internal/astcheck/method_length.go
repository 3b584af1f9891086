package astcheck

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const defaultMaxMethodLines = 150

var methodLengthKinds = ast.NewKindSet(ast.KindMethodDef, ast.KindCtorDef, ast.KindCompactCtorDef)

// MethodLength checks that methods and constructors do not exceed a
// configurable line count, measured from the declaration to the closing
// brace of the body.
type MethodLength struct {
	Base
	Max        int
	CountEmpty bool
}

func NewMethodLength() *MethodLength {
	return &MethodLength{Max: defaultMaxMethodLines, CountEmpty: true}
}

func (m *MethodLength) Name() string { return "MethodLength" }

func (m *MethodLength) DefaultKinds() ast.KindSet    { return methodLengthKinds }
func (m *MethodLength) AcceptableKinds() ast.KindSet { return methodLengthKinds }

func (m *MethodLength) Configure(s *module.Settings) error {
	if err := s.NonNegative("max", &m.Max); err != nil {
		return err
	}
	return s.Bool("countEmpty", &m.CountEmpty)
}

func (m *MethodLength) Enter(n *ast.Node) {
	body := n.FindChild(ast.KindSList)
	if body == nil {
		return
	}
	lineCount := m.countLines(body.Line, body.LastLine())
	if lineCount > m.Max {
		m.Log(n, fmt.Sprintf("Method %s length is %d lines (max allowed is %d).", n.Name(), lineCount, m.Max))
	}
}

func (m *MethodLength) countLines(first, last int) int {
	if m.CountEmpty || m.File() == nil {
		return last - first + 1
	}
	lines := m.File().Lines
	count := 0
	inBlock := false
	for i := first; i <= last && i-1 < len(lines); i++ {
		text := strings.TrimSpace(lines[i-1])
		switch {
		case inBlock:
			inBlock = !strings.Contains(text, "*/")
		case text == "", strings.HasPrefix(text, "//"):
		case strings.HasPrefix(text, "/*"):
			inBlock = !strings.Contains(text, "*/")
		default:
			count++
		}
	}
	return count
}
