package engine

import (
	"github.com/chris-regnier/warden/internal/astcheck"
	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/rules"
)

// DefaultRegistry knows every built-in tree check and text detector.
func DefaultRegistry() *module.Registry {
	r := module.NewRegistry()
	astcheck.Register(r)
	rules.Register(r)
	return r
}

var defaultChecks = []string{
	"CyclomaticComplexity",
	"NPathComplexity",
	"JavaNCSS",
	"BooleanExpressionComplexity",
	"ClassFanOutComplexity",
	"ClassDataAbstractionCoupling",
	"MethodLength",
	"NestedDepth",
	"ParameterNumber",
	"EmptyCatchBlock",
}

// DefaultTree is the configuration used when none is given: every tree
// check with its defaults, followed by one detector per rule.
func DefaultTree(rs []rules.Rule) *module.Config {
	root := module.New(CheckerName)
	tw := root.Add(module.New(TreeWalkerName))
	for _, name := range defaultChecks {
		tw.Add(module.New(name))
	}
	for _, c := range rules.Configs(rs) {
		root.Add(c)
	}
	return root
}
