package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/lyzr-oss/statelang/value"
)

// Agent is the Task state's sole external collaborator (spec §1's
// Non-goals exclude concrete agent network clients from the core, but the
// interface they must satisfy is core). Invoke receives the resolved
// Parameters (or shaped input if Parameters is absent) and returns a
// result value plus optional usage accounting; AgentResult's Tokens/Cost
// fields, when non-zero, are folded into the run's accumulators (spec
// §4.4.1).
type Agent interface {
	Invoke(ctx context.Context, input value.Value) (AgentResult, error)
}

// AgentResult is what a Task state captures from an Agent call.
type AgentResult struct {
	Output value.Value
	Tokens float64
	Cost   float64
}

// AgentFunc adapts a plain function to the Agent interface.
type AgentFunc func(ctx context.Context, input value.Value) (AgentResult, error)

func (f AgentFunc) Invoke(ctx context.Context, input value.Value) (AgentResult, error) {
	return f(ctx, input)
}

// Registry is a read-only-after-construction, name-indexed lookup of
// Agents (spec §5's "Shared resources": registration happens before run,
// lookups happen concurrently from parallel branches/map items, so reads
// never race with writes once registration is done).
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds or replaces the agent bound to name.
func (r *Registry) Register(name string, agent Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[name] = agent
}

// Lookup returns the agent bound to name, or an error tagged
// States.AgentNotFound if none is registered.
func (r *Registry) Lookup(name string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return nil, &EngineError{
			Message: fmt.Sprintf("no agent registered under name %q", name),
			Code:    CodeAgentNotFound,
		}
	}
	return a, nil
}
