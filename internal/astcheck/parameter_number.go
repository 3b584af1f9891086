package astcheck

import (
	"fmt"

	"github.com/chris-regnier/warden/internal/ast"
	"github.com/chris-regnier/warden/internal/module"
)

const defaultMaxParams = 7

var parameterKinds = ast.NewKindSet(ast.KindMethodDef, ast.KindCtorDef)

// ParameterNumber checks that methods and constructors do not declare too
// many parameters.
type ParameterNumber struct {
	Base
	Max                     int
	IgnoreOverriddenMethods bool
}

func NewParameterNumber() *ParameterNumber {
	return &ParameterNumber{Max: defaultMaxParams}
}

func (p *ParameterNumber) Name() string { return "ParameterNumber" }

func (p *ParameterNumber) DefaultKinds() ast.KindSet    { return parameterKinds }
func (p *ParameterNumber) AcceptableKinds() ast.KindSet { return parameterKinds }

func (p *ParameterNumber) Configure(s *module.Settings) error {
	if err := s.NonNegative("max", &p.Max); err != nil {
		return err
	}
	return s.Bool("ignoreOverriddenMethods", &p.IgnoreOverriddenMethods)
}

func (p *ParameterNumber) Enter(n *ast.Node) {
	params := n.FindChild(ast.KindParameters)
	if params == nil {
		return
	}
	count := len(params.ChildrenOf(ast.KindParameterDef))
	if count <= p.Max {
		return
	}
	if p.IgnoreOverriddenMethods && overrides(n) {
		return
	}
	p.Log(n, fmt.Sprintf("More than %d parameters (found %d).", p.Max, count))
}

func overrides(n *ast.Node) bool {
	mods := n.FindChild(ast.KindModifiers)
	if mods == nil {
		return false
	}
	for _, a := range mods.ChildrenOf(ast.KindAnnotation) {
		if a.Text == "Override" || a.Text == "java.lang.Override" {
			return true
		}
	}
	return false
}
