package workflow

import (
	"context"

	"github.com/lyzr-oss/statelang/value"
)

// execPass implements spec §4.4.2: static Result if present, else
// Parameters-resolved value, else the shaped input unchanged.
func execPass(_ context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, _ *Runtime) (kindResult, error) {
	if def.Result != nil {
		return kindResult{Raw: def.Result}, nil
	}
	if def.Parameters != nil {
		resolved, err := resolveParams(def.Parameters, shapedInput, ec)
		if err != nil {
			return kindResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
		}
		return kindResult{Raw: resolved}, nil
	}
	return kindResult{Raw: shapedInput}, nil
}
