package workflow

import "github.com/lyzr-oss/statelang/workflow/emit"

// defaultMaxSteps bounds the interpreter's main loop against a workflow
// definition whose Next edges form an infinite cycle. Grounded on the
// teacher's ErrMaxStepsExceeded / WithMaxSteps.
const defaultMaxSteps = 10_000

// Option configures an Engine at construction time, following the
// teacher's functional-options pattern (graph/options.go) rather than a
// config struct threaded through every call.
type Option func(*engineConfig)

type engineConfig struct {
	maxSteps    int
	emitter     emit.Emitter
	approval    ApprovalHandler
	checkpoints CheckpointStore
	metrics     *Metrics
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		maxSteps: defaultMaxSteps,
		emitter:  emit.NewNullEmitter(),
		approval: AutoApproveHandler{},
	}
}

// WithMaxSteps overrides the main-loop step budget.
func WithMaxSteps(n int) Option {
	return func(c *engineConfig) { c.maxSteps = n }
}

// WithEmitter sets the Emitter every run's ExecutionContext reports
// through.
func WithEmitter(e emit.Emitter) Option {
	return func(c *engineConfig) { c.emitter = e }
}

// WithApprovalHandler sets the default ApprovalHandler for Approval
// states that don't resolve via resume data.
func WithApprovalHandler(h ApprovalHandler) Option {
	return func(c *engineConfig) { c.approval = h }
}

// WithCheckpointStore sets the collaborator Checkpoint states persist
// snapshots through.
func WithCheckpointStore(s CheckpointStore) Option {
	return func(c *engineConfig) { c.checkpoints = s }
}

// WithMetrics attaches a Metrics collector; nil (the default) disables
// collection.
func WithMetrics(m *Metrics) Option {
	return func(c *engineConfig) { c.metrics = m }
}
