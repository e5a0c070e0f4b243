// Package emit provides event emission and observability for workflow
// execution, mirroring the trace-record shape the interpreter already
// maintains internally (spec §3) so the two never drift.
package emit

// Event is one observability event emitted during workflow execution. Its
// Kind values line up with the Trace Record types in spec §3:
// workflow_start, state_enter, state_exit, retry, catch,
// checkpoint_created, workflow_paused, workflow_complete, workflow_error.
type Event struct {
	// RunID identifies the workflow execution that emitted this event.
	RunID string

	// Step is the length of the run's trace when the event is emitted,
	// i.e. the 1-indexed position of the trace record just appended for
	// state-level events. Zero for workflow_start; workflow_complete and
	// workflow_error carry the trace length at the end of the run.
	Step int

	// StateName identifies which state emitted this event. Empty for
	// run-level events.
	StateName string

	// Kind is the trace-record type (see package doc).
	Kind string

	// Meta carries type-specific fields: error code and attempt for retry,
	// error code and next state for catch, duration_ms for state_exit,
	// name and id for checkpoint_created, error code and cause for
	// workflow_error. Other kinds carry no Meta.
	Meta map[string]any
}
