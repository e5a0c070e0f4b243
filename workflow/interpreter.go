package workflow

import (
	"context"
	"time"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow/emit"
)

// Result status tags (spec §3's Workflow Result: tagged
// success | failure | paused).
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusPaused  = "paused"
)

// Result is the top-level outcome of a Run call.
type Result struct {
	Status string

	// success
	Output value.Value

	// failure
	ErrorCode string
	Cause     string

	// paused
	PausedAtState  string
	CheckpointData value.Value
	PendingInput   map[string]any

	Trace    []TraceRecord
	Duration time.Duration
	Tokens   float64
	Cost     float64
}

// Engine is the top-level interpreter (spec §4.5): it owns a workflow
// Definition, an Agent Registry, and the collaborators configured via
// Option, and runs the state-machine loop to completion, failure, or
// pause.
type Engine struct {
	def      *Definition
	registry *Registry
	cfg      *engineConfig
}

// NewEngine returns an Engine bound to def and registry, configured by
// opts. Mirrors the teacher's graph.New functional-options constructor.
func NewEngine(def *Definition, registry *Registry, opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return &Engine{def: def, registry: registry, cfg: cfg}
}

// Snapshot returns the current Metrics snapshot (zero value if metrics
// were not configured).
func (e *Engine) Snapshot() Snapshot {
	return e.cfg.metrics.Snapshot()
}

// RunInput is the argument to Run: an input value plus optional
// start/resume overrides (spec §6's resume contract).
type RunInput struct {
	// StartState overrides the Definition's StartAt for this run.
	StartState string

	// ResumeFromState names the Approval state to re-enter on a resume
	// run (spec §6).
	ResumeFromState string

	// ResumeData is passed through to the re-entered Approval state; its
	// "approval" key (and optional "approver"/"comment"/"edited_content")
	// resolve the pending decision.
	ResumeData value.Value
}

// Run executes the workflow from input to a success, failure, or paused
// Result (spec §4.5's main loop).
func (e *Engine) Run(ctx context.Context, input value.Value, run RunInput) Result {
	start := time.Now()
	ec := NewExecutionContext(e.def.Comment, e.cfg.emitter, e.cfg.approval)
	ec.ResumeData = run.ResumeData

	e.cfg.metrics.runStarted()
	defer e.cfg.metrics.runEnded()

	ec.Emitter.Emit(emit.Event{RunID: ec.ID, Step: 0, Kind: "workflow_start"})

	startState := run.StartState
	if startState == "" {
		startState = run.ResumeFromState
	}
	if startState == "" {
		startState = e.def.StartAt
	}
	if startState == "" {
		return e.finish(ec, start, Result{
			Status: StatusFailure, ErrorCode: CodeValidationError, Cause: "no start state resolved",
		})
	}

	rt := &Runtime{
		Registry:    e.registry,
		Checkpoints: e.cfg.checkpoints,
		MaxSteps:    e.cfg.maxSteps,
		Metrics:     e.cfg.metrics,
	}
	output, err := runToCompletion(ctx, e.def, ec, startState, input, rt)

	if err != nil {
		if p, ok := err.(*errPause); ok {
			ec.Paused = true
			ec.appendTrace("workflow_paused", p.StateName, nil)
			ec.Emitter.Emit(emit.Event{RunID: ec.ID, Step: len(ec.Trace), StateName: p.StateName, Kind: "workflow_paused"})
			return e.finish(ec, start, Result{
				Status:         StatusPaused,
				PausedAtState:  p.StateName,
				CheckpointData: p.CheckpointData,
				PendingInput:   p.PendingInput,
			})
		}
		code := ErrorCode(err)
		cause := ErrorCause(err)
		ec.Emitter.Emit(emit.Event{
			RunID: ec.ID, Step: len(ec.Trace), Kind: "workflow_error",
			Meta: map[string]any{"error": code, "cause": cause},
		})
		return e.finish(ec, start, Result{Status: StatusFailure, ErrorCode: code, Cause: cause})
	}

	ec.Emitter.Emit(emit.Event{RunID: ec.ID, Step: len(ec.Trace), Kind: "workflow_complete"})
	return e.finish(ec, start, Result{Status: StatusSuccess, Output: output})
}

func (e *Engine) finish(ec *ExecutionContext, start time.Time, res Result) Result {
	res.Trace = ec.Trace
	res.Duration = time.Since(start)
	res.Tokens = ec.Tokens
	res.Cost = ec.Cost
	return res
}

// runToCompletion runs def starting at startState against data, through
// to a terminal state's output, a bubbled error, or a bubbled pause. It
// is a free function (not an Engine method) so Map/Parallel's kindFunc
// executors — which only ever see a *Runtime, never an *Engine — can
// drive a nested Definition (an Iterator or a Branch) through the
// exact same loop the top-level Run uses.
func runToCompletion(ctx context.Context, def *Definition, ec *ExecutionContext, startState string, data value.Value, rt *Runtime) (value.Value, error) {
	current := startState
	steps := 0
	maxSteps := rt.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxSteps
	}
	for {
		steps++
		if steps > maxSteps {
			return nil, &EngineError{Message: "execution exceeded maximum step count", Code: CodeError, StateName: current}
		}

		sdef, ok := def.States[current]
		if !ok {
			return nil, &EngineError{Message: "state not found: " + current, Code: CodeStateNotFound, StateName: current}
		}

		ec.EnterState(current, data)

		result, err := executeWithRetry(ctx, ec, sdef, data, rt)
		ec.ExitState(current, result.Output)

		if err != nil {
			if _, ok := err.(*errPause); ok {
				return nil, err
			}
			caught, nextData, nextState, cerr := tryCatch(sdef, ec, data, err, rt)
			if cerr != nil {
				return nil, cerr
			}
			if caught {
				data = nextData
				current = nextState
				continue
			}
			return nil, err
		}

		data = result.Output
		if result.Terminal {
			return data, nil
		}
		current = result.NextState
	}
}

// executeWithRetry implements spec §4.5's "Execute with Retry": call the
// state; on failure, the first Retry entry matching the error code
// governs the whole retry regime (up to MaxAttempts attempts, with
// exponential backoff + optional full jitter), never falling through to
// a later Retry entry once one has been selected.
func executeWithRetry(ctx context.Context, ec *ExecutionContext, def *StateDef, input value.Value, rt *Runtime) (StateResult, error) {
	attempt := 0
	for {
		callStart := time.Now()
		res, err := executeState(ctx, ec, def, input, rt)
		latencyMs := float64(time.Since(callStart).Milliseconds())

		if err == nil {
			rt.Metrics.recordState(def.Type, "success", latencyMs)
			return res, nil
		}
		if _, ok := err.(*errPause); ok {
			return StateResult{}, err
		}

		rt.Metrics.recordState(def.Type, "error", latencyMs)
		code := ErrorCode(err)
		rule, ok := selectRetrier(def.Retry, code)
		if !ok {
			return StateResult{}, err
		}

		maxAttempts := effectiveMaxAttempts(*rule)
		if attempt+1 >= maxAttempts {
			return StateResult{}, err
		}
		attempt++

		delay := computeDelay(*rule, attempt, nil)
		ec.RecordRetry(ec.CurrentState, code, attempt)
		rt.Metrics.recordRetry(code)

		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return StateResult{}, &EngineError{Message: "retry wait cancelled", Code: CodeTimeout, StateName: ec.CurrentState, Cause: ctx.Err()}
			}
		}
	}
}

// tryCatch implements spec §4.5's "Try Catch": the first Catch entry
// matching the error code wins; the error payload {Error, Cause} is
// injected at the catcher's ResultPath (default $.error) into the
// original (pre-state) input, and control transitions to its Next.
func tryCatch(def *StateDef, ec *ExecutionContext, originalInput value.Value, stateErr error, rt *Runtime) (caught bool, data value.Value, nextState string, err error) {
	if def.Type == "Fail" {
		// A Fail state is the explicit failure exit: its own Catch never applies.
		return false, nil, "", nil
	}
	code := ErrorCode(stateErr)
	rule, ok := selectCatcher(def.Catch, code)
	if !ok {
		return false, nil, "", nil
	}

	payload := value.Map{"Error": code, "Cause": ErrorCause(stateErr)}
	resultPath := "$.error"
	if rule.ResultPath != nil {
		resultPath = *rule.ResultPath
	}
	merged, serr := path.Set(resultPath, originalInput, payload)
	if serr != nil {
		return false, nil, "", &EngineError{Message: serr.Error(), Code: CodeResultPathMatchFailure, StateName: ec.CurrentState}
	}

	ec.RecordCatch(ec.CurrentState, code, rule.Next)
	rt.Metrics.recordCatch(code)
	return true, merged, rule.Next, nil
}
