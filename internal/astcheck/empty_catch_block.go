package astcheck

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

// EmptyCatchBlock checks for catch blocks with no statements. A block is
// allowed when its exception variable matches ExceptionVariableName or when
// the comment inside it matches CommentFormat.
type EmptyCatchBlock struct {
	Base
	ExceptionVariableName *regexp2.Regexp
	CommentFormat         *regexp2.Regexp
}

func NewEmptyCatchBlock() *EmptyCatchBlock {
	return &EmptyCatchBlock{
		ExceptionVariableName: regexp2.MustCompile("^$", regexp2.None),
		CommentFormat:         regexp2.MustCompile(".*", regexp2.None),
	}
}

func (e *EmptyCatchBlock) Name() string { return "EmptyCatchBlock" }

func (e *EmptyCatchBlock) DefaultKinds() ast.KindSet    { return ast.NewKindSet(ast.KindCatch) }
func (e *EmptyCatchBlock) AcceptableKinds() ast.KindSet { return e.DefaultKinds() }

func (e *EmptyCatchBlock) Configure(s *module.Settings) error {
	if err := s.Pattern("exceptionVariableName", regexp2.None, &e.ExceptionVariableName); err != nil {
		return err
	}
	return s.Pattern("commentFormat", regexp2.None, &e.CommentFormat)
}

func (e *EmptyCatchBlock) Enter(n *ast.Node) {
	body := n.FindChild(ast.KindSList)
	if body == nil || body.NumChildren() > 0 {
		return
	}
	if param := n.FindChild(ast.KindParameterDef); param != nil {
		if ok, _ := e.ExceptionVariableName.MatchString(param.Name()); ok {
			return
		}
	}
	if comment, ok := e.comment(body); ok {
		if matched, _ := e.CommentFormat.MatchString(comment); matched {
			return
		}
	}
	e.Log(n, "Empty catch block.")
}

// comment returns the text of the comments written between the braces of
// body, trimmed of comment markers.
func (e *EmptyCatchBlock) comment(body *ast.Node) (string, bool) {
	fc := e.File()
	if fc == nil || body.Line < 1 || body.LastLine() > len(fc.Lines) {
		return "", false
	}
	inner := strings.Join(fc.Lines[body.Line-1:body.LastLine()], "\n")
	if first := body.Column; first < len(inner) && inner[first] == '{' {
		inner = inner[first+1:]
	} else if i := strings.IndexByte(inner, '{'); i >= 0 {
		inner = inner[i+1:]
	}
	if i := strings.LastIndexByte(inner, '}'); i >= 0 {
		inner = inner[:i]
	}
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return "", false
	}
	var parts []string
	for _, line := range strings.Split(inner, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(line, "*")
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " "), true
}
