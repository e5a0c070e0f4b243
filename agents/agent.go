// Package agents provides workflow.Agent implementations: a mock for
// tests, and thin wrappers around the major LLM provider SDKs for Task
// states to invoke. Each adapter expects an input mapping with a
// "prompt" string (and an optional "system" string) and returns
// {"text": <response>}, folding the provider's reported token usage into
// the AgentResult the interpreter accumulates.
//
// Grounded on the teacher's graph/model adapters (anthropic/openai/google
// ChatModel implementations), narrowed from the teacher's multi-turn
// Message/ToolSpec interface down to the spec's single-prompt Task
// contract.
package agents

import (
	"fmt"

	"github.com/lyzr-oss/statelang/value"
)

func extractPrompt(input value.Value) (prompt, system string, err error) {
	m, ok := value.AsMap(input)
	if !ok {
		return "", "", fmt.Errorf("agents: Task input must be a mapping with a \"prompt\" field, got %s", value.TypeName(input))
	}
	prompt, ok = value.AsString(m["prompt"])
	if !ok || prompt == "" {
		return "", "", fmt.Errorf("agents: Task input is missing a non-empty \"prompt\" string")
	}
	system, _ = value.AsString(m["system"])
	return prompt, system, nil
}
