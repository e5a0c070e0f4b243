package workflow

import (
	"context"

	"github.com/lyzr-oss/statelang/value"
)

// execFail implements spec §4.4.8: terminal, always raises an error —
// Error defaults to States.Failed, Cause defaults to "Workflow failed".
// This is observable as workflow failure, never caught by the Fail
// state's own Catch: tryCatch ignores Catch rules on a Fail state.
func execFail(_ context.Context, ec *ExecutionContext, def *StateDef, _ value.Value, _ *Runtime) (kindResult, error) {
	code := def.Error
	if code == "" {
		code = CodeFailed
	}
	cause := def.Cause
	if cause == "" {
		cause = "Workflow failed"
	}
	return kindResult{}, &EngineError{Message: cause, Code: code, StateName: ec.CurrentState}
}
