package emit

import "context"

// Emitter receives observability events from a running workflow.
// Implementations must be non-blocking and thread-safe: the interpreter
// calls Emit synchronously from the state-enter/state-exit hooks (spec
// §4.3) and must never be slowed down or panicked by a misbehaving
// backend.
type Emitter interface {
	// Emit sends a single event. Must not block or panic.
	Emit(event Event)

	// EmitBatch sends multiple events in submission order. Returns an
	// error only for catastrophic backend failures, not per-event ones.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered, or ctx
	// is done. Safe to call multiple times.
	Flush(ctx context.Context) error
}
