package workflow

import (
	"context"
	"time"

	"github.com/lyzr-oss/statelang/value"
)

// execTask implements spec §4.4.1: look up the agent, invoke it with the
// resolved Parameters (or shaped input), fold usage into the
// accumulators, and classify failures.
func execTask(ctx context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, rt *Runtime) (kindResult, error) {
	agent, err := rt.Registry.Lookup(def.Agent)
	if err != nil {
		return kindResult{}, err
	}

	params, err := resolveParams(def.Parameters, shapedInput, ec)
	if err != nil {
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
	}

	callCtx := ctx
	if def.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(def.TimeoutSeconds*float64(time.Second)))
		defer cancel()
	}

	res, err := agent.Invoke(callCtx, params)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return kindResult{}, &EngineError{Message: "agent call timed out", Code: CodeTimeout, StateName: ec.CurrentState, Cause: err}
		}
		if ee, ok := err.(*EngineError); ok {
			ee.StateName = ec.CurrentState
			return kindResult{}, ee
		}
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeTaskFailed, StateName: ec.CurrentState, Cause: err}
	}

	return kindResult{Raw: res.Output, Tokens: res.Tokens, Cost: res.Cost}, nil
}
