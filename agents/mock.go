package agents

import (
	"context"

	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow"
)

// Mock is a workflow.Agent whose reply is computed by a plain function,
// for tests and local development without a live provider.
type Mock struct {
	Reply func(prompt string) string
}

// NewMock returns a Mock that echoes the prompt verbatim.
func NewMock() *Mock {
	return &Mock{Reply: func(p string) string { return p }}
}

func (m *Mock) Invoke(_ context.Context, input value.Value) (workflow.AgentResult, error) {
	prompt, _, err := extractPrompt(input)
	if err != nil {
		return workflow.AgentResult{}, err
	}
	reply := prompt
	if m.Reply != nil {
		reply = m.Reply(prompt)
	}
	return workflow.AgentResult{Output: value.Map{"text": reply}}, nil
}
