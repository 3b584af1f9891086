package astcheck

import "github.com/chris-regnier/warden/internal/module"

// Register adds every built-in tree check to r.
func Register(r *module.Registry) {
	r.Register("CyclomaticComplexity", func() module.Module { return NewCyclomaticComplexity() })
	r.Register("NPathComplexity", func() module.Module { return NewNPathComplexity() })
	r.Register("JavaNCSS", func() module.Module { return NewJavaNCSS() })
	r.Register("BooleanExpressionComplexity", func() module.Module { return NewBooleanExpressionComplexity() })
	r.Register("ClassFanOutComplexity", func() module.Module { return NewClassFanOutComplexity() })
	r.Register("ClassDataAbstractionCoupling", func() module.Module { return NewClassDataAbstractionCoupling() })
	r.Register("MethodLength", func() module.Module { return NewMethodLength() })
	r.Register("NestedDepth", func() module.Module { return NewNestedDepth() })
	r.Register("ParameterNumber", func() module.Module { return NewParameterNumber() })
	r.Register("EmptyCatchBlock", func() module.Module { return NewEmptyCatchBlock() })
}

// DefaultRegistry returns a registry pre-loaded with all built-in tree checks.
func DefaultRegistry() *module.Registry {
	r := module.NewRegistry()
	Register(r)
	return r
}
