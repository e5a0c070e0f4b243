package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow/emit"
)

// TraceRecord is one append-only entry in a run's trace (spec §3).
// Timestamps are monotonic within a run; records are never mutated after
// append.
type TraceRecord struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state,omitempty"`
	Fields    value.Map `json:"fields,omitempty"`
}

// MapItemContext is the per-iteration $$.Map.Item view (spec §4.3),
// present only while a Map iteration is in flight.
type MapItemContext struct {
	Index int
	Value value.Value
}

// ExecutionContext is the per-run mutable state described in spec §3/§4.3:
// identifiers, the append-only trace, token/cost accumulators, current
// state bookkeeping, optional map-item context, and the collaborators
// (Emitter, ApprovalHandler) the interpreter drives through it. One
// Context is created per run and dropped at return; states themselves
// stay stateless and reentrant (spec's Lifecycles note), with every
// mutation living here.
type ExecutionContext struct {
	ID        string
	Name      string
	StartTime time.Time

	CurrentState string
	EnteredTime  time.Time
	RetryCount   int

	MapItem *MapItemContext

	Trace []TraceRecord

	Tokens float64
	Cost   float64

	Paused bool

	// CheckpointData is the value presented to the current state on
	// entry, before any path shaping — the pause/resume snapshot (spec's
	// invariant: "The context's input snapshot for pause/resume is the
	// value presented to the state on entry, not after any shaping").
	CheckpointData value.Value

	// ResumeData is non-nil only when this run is resuming a previously
	// paused execution (spec §6's resume contract).
	ResumeData value.Value

	Emitter         emit.Emitter
	ApprovalHandler ApprovalHandler
}

// NewExecutionContext creates a fresh context for a run named name. If
// emitter is nil, a NullEmitter is used so callers never need a nil
// check before calling EnterState/ExitState.
func NewExecutionContext(name string, emitter emit.Emitter, approval ApprovalHandler) *ExecutionContext {
	if emitter == nil {
		emitter = emit.NewNullEmitter()
	}
	return &ExecutionContext{
		ID:              uuid.NewString(),
		Name:            name,
		StartTime:       time.Now(),
		Emitter:         emitter,
		ApprovalHandler: approval,
	}
}

// View builds the "$$"-addressable context object (spec §4.3) for path
// evaluation and intrinsic calls. The "_tokens"/"_cost" keys are not part
// of the spec's documented $$ shape; they exist purely so the
// intrinsics package's CurrentCost/CurrentTokens can read the
// accumulators through the same ContextView it already receives, without
// importing this package (see intrinsics.biCurrentCost's doc comment).
func (c *ExecutionContext) View() path.ContextView {
	v := path.ContextView{
		"Execution": value.Map{
			"Id":        c.ID,
			"Name":      c.Name,
			"StartTime": c.StartTime.Format(time.RFC3339),
		},
		"State": value.Map{
			"Name":        c.CurrentState,
			"EnteredTime": c.EnteredTime.Format(time.RFC3339),
			"RetryCount":  float64(c.RetryCount),
		},
		"_tokens": c.Tokens,
		"_cost":   c.Cost,
	}
	if c.MapItem != nil {
		v["Map"] = value.Map{
			"Item": value.Map{
				"Index": float64(c.MapItem.Index),
				"Value": c.MapItem.Value,
			},
		}
	}
	return v
}

// EnterState resets the retry counter, records the entry timestamp,
// snapshots input as the pause/resume checkpoint, and appends/ emits a
// state_enter trace record.
func (c *ExecutionContext) EnterState(name string, input value.Value) {
	c.CurrentState = name
	c.EnteredTime = time.Now()
	c.RetryCount = 0
	c.CheckpointData = input
	c.appendTrace("state_enter", name, nil)
	c.Emitter.Emit(emit.Event{RunID: c.ID, Step: len(c.Trace), StateName: name, Kind: "state_enter"})
}

// ExitState appends/emits a state_exit trace record carrying the
// execution duration.
func (c *ExecutionContext) ExitState(name string, output value.Value) {
	duration := time.Since(c.EnteredTime)
	c.appendTrace("state_exit", name, value.Map{"duration_ms": float64(duration.Milliseconds())})
	c.Emitter.Emit(emit.Event{
		RunID: c.ID, Step: len(c.Trace), StateName: name, Kind: "state_exit",
		Meta: map[string]any{"duration_ms": duration.Milliseconds()},
	})
}

// RecordRetry appends/emits a retry trace record.
func (c *ExecutionContext) RecordRetry(state, code string, attempt int) {
	c.RetryCount = attempt
	c.appendTrace("retry", state, value.Map{"error": code, "attempt": float64(attempt)})
	c.Emitter.Emit(emit.Event{
		RunID: c.ID, Step: len(c.Trace), StateName: state, Kind: "retry",
		Meta: map[string]any{"error": code, "attempt": attempt},
	})
}

// RecordCatch appends/emits a catch trace record.
func (c *ExecutionContext) RecordCatch(state, code, next string) {
	c.appendTrace("catch", state, value.Map{"error": code, "next": next})
	c.Emitter.Emit(emit.Event{
		RunID: c.ID, Step: len(c.Trace), StateName: state, Kind: "catch",
		Meta: map[string]any{"error": code, "next": next},
	})
}

// RecordCheckpointCreated appends/emits a checkpoint_created trace record.
func (c *ExecutionContext) RecordCheckpointCreated(state, checkpointName, checkpointID string) {
	c.appendTrace("checkpoint_created", state, value.Map{"name": checkpointName, "id": checkpointID})
	c.Emitter.Emit(emit.Event{
		RunID: c.ID, Step: len(c.Trace), StateName: state, Kind: "checkpoint_created",
		Meta: map[string]any{"name": checkpointName, "id": checkpointID},
	})
}

func (c *ExecutionContext) appendTrace(kind, state string, fields value.Map) {
	c.Trace = append(c.Trace, TraceRecord{
		Type:      kind,
		Timestamp: time.Now(),
		State:     state,
		Fields:    fields,
	})
}

// AccumulateUsage folds an AgentResult's Tokens/Cost into the running
// accumulators (spec §4.4.1).
func (c *ExecutionContext) AccumulateUsage(tokens, cost float64) {
	c.Tokens += tokens
	c.Cost += cost
}

// Derive returns an isolated child context for a Parallel branch or Map
// item worker (spec §5: "branch/item workers see isolated derived
// contexts that merge trace entries and accumulators back into the
// parent on completion"). The child shares the run ID and collaborators
// but owns its own trace/accumulators/current-state bookkeeping so
// concurrent workers never race on the parent's fields.
func (c *ExecutionContext) Derive() *ExecutionContext {
	return &ExecutionContext{
		ID:              c.ID,
		Name:            c.Name,
		StartTime:       c.StartTime,
		Emitter:         c.Emitter,
		ApprovalHandler: c.ApprovalHandler,
		ResumeData:      c.ResumeData,
	}
}

// MergeChild folds a derived child context's trace and accumulators back
// into c after the child's branch/item completes (spec §5).
func (c *ExecutionContext) MergeChild(child *ExecutionContext) {
	c.Trace = append(c.Trace, child.Trace...)
	c.Tokens += child.Tokens
	c.Cost += child.Cost
}
