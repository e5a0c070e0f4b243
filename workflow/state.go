package workflow

import (
	"context"
	"time"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

// Runtime bundles the collaborators a state needs beyond its own
// definition and the execution context: the Agent registry (Task) and
// the checkpoint store (Checkpoint). Map/Parallel recurse into
// runToCompletion directly (same package, no callback indirection
// needed).
type Runtime struct {
	Registry    *Registry
	Checkpoints CheckpointStore

	// MaxSteps and Metrics are threaded through so Map/Parallel can
	// drive a nested Definition through the same runToCompletion loop the
	// top-level Engine.Run uses, without needing an *Engine reference
	// (kindFunc has no room for one).
	MaxSteps int
	Metrics  *Metrics
}

// CheckpointStore persists a Checkpoint state's snapshot (spec §4.4.10);
// the interpreter core only ever calls through this interface, never a
// concrete backend — persistence itself is an out-of-core collaborator.
type CheckpointStore interface {
	Save(ctx context.Context, snapshot CheckpointSnapshot) error
}

// CheckpointSnapshot is what a Checkpoint state hands to a CheckpointStore.
type CheckpointSnapshot struct {
	ID         string
	Name       string
	ExecID     string
	CreatedAt  time.Time
	Input      value.Value
	Trace      []TraceRecord
	Tokens     float64
	Cost       float64
	TTLSeconds float64
}

// StateResult is the outcome of one full state execution, after path
// shaping and kind-specific work (spec §4.4's common result shape).
type StateResult struct {
	Output    value.Value
	NextState string
	Terminal  bool
}

// kindResult is what a kind-specific executor hands back to the generic
// path-shaping wrapper in executeState: the raw (pre-ResultSelector,
// pre-ResultPath) result, and an optional NextOverride for kinds (Choice,
// Approval-with-Choices) that determine transitions themselves instead of
// relying on the static Next/End fields.
type kindResult struct {
	Raw          value.Value
	NextOverride string
	HasOverride  bool
	Tokens       float64
	Cost         float64
}

// kindFunc computes one state kind's result given its already
// InputPath-shaped input.
type kindFunc func(ctx context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, rt *Runtime) (kindResult, error)

var kindTable = map[string]kindFunc{
	"Task":      execTask,
	"Pass":      execPass,
	"Choice":    execChoice,
	"Wait":      execWait,
	"Succeed":   execSucceed,
	"Fail":      execFail,
	"Map":       execMap,
	"Parallel":  execParallel,
	"Approval":  execApproval,
	"Checkpoint": execCheckpoint,
	"Debate":    execDebate,
}

// executeState runs the shared path-shaping pipeline (spec §4.4: InputPath
// filter → kind-specific work → ResultSelector → ResultPath merge →
// OutputPath filter) around one state's kind-specific executor.
func executeState(ctx context.Context, ec *ExecutionContext, def *StateDef, input value.Value, rt *Runtime) (StateResult, error) {
	kf, ok := kindTable[def.Type]
	if !ok {
		return StateResult{}, &EngineError{
			Message: "unknown state type " + def.Type, Code: CodeValidationError, StateName: ec.CurrentState,
		}
	}

	shaped, err := applyOptionalPath(def.InputPath, input, ec)
	if err != nil {
		return StateResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
	}

	kr, err := kf(ctx, ec, def, shaped, rt)
	if err != nil {
		return StateResult{}, err
	}
	ec.AccumulateUsage(kr.Tokens, kr.Cost)

	var output value.Value
	if def.Type == "Choice" {
		// Choice ignores ResultPath; it is transition-only (spec §4.4.3).
		output, err = applyOptionalPath(def.OutputPath, shaped, ec)
		if err != nil {
			return StateResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
		}
	} else {
		result := kr.Raw
		if def.ResultSelector != nil {
			result, err = path.ResolveParameters(def.ResultSelector, result, ec.View(), intrinsicEvaluator)
			if err != nil {
				return StateResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
			}
		}
		resultPath := "$"
		if def.ResultPath != nil {
			resultPath = *def.ResultPath
		}
		merged, err := path.Set(resultPath, input, result)
		if err != nil {
			return StateResult{}, &EngineError{Message: err.Error(), Code: CodeResultPathMatchFailure, StateName: ec.CurrentState}
		}
		output, err = applyOptionalPath(def.OutputPath, merged, ec)
		if err != nil {
			return StateResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
		}
	}

	sr := StateResult{Output: output}
	switch {
	case kr.HasOverride:
		sr.NextState = kr.NextOverride
		sr.Terminal = kr.NextOverride == ""
	case def.End || def.Type == "Succeed":
		sr.Terminal = true
	default:
		sr.NextState = def.Next
	}
	return sr, nil
}

// applyOptionalPath evaluates p against data (default "$", i.e. identity)
// using ec's context view for "$$" paths.
func applyOptionalPath(p *string, data value.Value, ec *ExecutionContext) (value.Value, error) {
	if p == nil {
		return data, nil
	}
	return path.Evaluate(*p, data, ec.View())
}

// resolveParams resolves def.Parameters against shapedInput if present,
// else returns shapedInput unchanged (spec's "resolved Parameters, or the
// shaped input if Parameters absent" pattern used by Task/Map/Approval).
func resolveParams(params value.Value, shapedInput value.Value, ec *ExecutionContext) (value.Value, error) {
	if params == nil {
		return shapedInput, nil
	}
	return path.ResolveParameters(params, shapedInput, ec.View(), intrinsicEvaluator)
}
