package workflow

import (
	"github.com/lyzr-oss/statelang/intrinsics"
	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

// intrinsicEvaluator wires path.ResolveParameters to the intrinsics
// catalog. It is the only point of contact between this package and
// package intrinsics, kept this narrow so the path<->intrinsics
// callback-injection pattern (see path.IntrinsicEvaluator) is visible at
// a glance.
func intrinsicEvaluator(expr string, data value.Value, ctx path.ContextView) (value.Value, error) {
	v, err := intrinsics.Eval(expr, data, ctx)
	if err != nil {
		return nil, &EngineError{Message: err.Error(), Code: intrinsics.CodeIntrinsicFailure}
	}
	return v, nil
}
