package workflow

import (
	"context"
	"sync"

	"github.com/lyzr-oss/statelang/value"
	"golang.org/x/sync/errgroup"
)

// execParallel implements spec §4.4.5: run every Branch concurrently
// against the same shaped input, each through its own isolated derived
// context, and collect outputs in definition order (not completion
// order). Any branch's failure fails the whole Parallel unless caught by
// the Parallel state's own Catch.
func execParallel(ctx context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, rt *Runtime) (kindResult, error) {
	if len(def.Branches) == 0 {
		return kindResult{}, &EngineError{Message: "Parallel state has no Branches", Code: CodeValidationError, StateName: ec.CurrentState}
	}

	outputs := make([]value.Value, len(def.Branches))
	var usageMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	for i, branch := range def.Branches {
		i, branch := i, branch
		g.Go(func() error {
			if branch.StartAt == "" {
				return &EngineError{Message: "Parallel branch has no StartAt", Code: CodeValidationError, StateName: ec.CurrentState}
			}

			child := ec.Derive()
			out, err := runToCompletion(gctx, branch, child, branch.StartAt, value.DeepCopy(shapedInput), rt)

			usageMu.Lock()
			ec.MergeChild(child)
			usageMu.Unlock()

			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if _, ok := err.(*errPause); ok {
			return kindResult{}, err
		}
		if ee, ok := err.(*EngineError); ok {
			return kindResult{}, ee
		}
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeTaskFailed, StateName: ec.CurrentState, Cause: err}
	}

	// MergeChild already folded every branch's usage into ec.Tokens/ec.Cost
	// above; leave kindResult's Tokens/Cost at zero so executeState's
	// AccumulateUsage doesn't add the same amount a second time.
	return kindResult{Raw: value.Array(outputs)}, nil
}
