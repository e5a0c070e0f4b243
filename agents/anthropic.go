package agents

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow"
)

// Anthropic is a workflow.Agent backed by Claude, grounded on the
// teacher's graph/model/anthropic adapter's client construction and
// system-prompt handling.
type Anthropic struct {
	apiKey    string
	modelName string
	maxTokens int64
}

// NewAnthropic returns an Anthropic agent. modelName defaults to
// "claude-sonnet-4-5-20250929" when empty.
func NewAnthropic(apiKey, modelName string) *Anthropic {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &Anthropic{apiKey: apiKey, modelName: modelName, maxTokens: 4096}
}

func (a *Anthropic) Invoke(ctx context.Context, input value.Value) (workflow.AgentResult, error) {
	prompt, system, err := extractPrompt(input)
	if err != nil {
		return workflow.AgentResult{}, err
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(a.apiKey))
	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(a.modelName),
		MaxTokens: a.maxTokens,
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return workflow.AgentResult{}, fmt.Errorf("agents: anthropic call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			text += tb.Text
		}
	}

	return workflow.AgentResult{
		Output: value.Map{"text": text},
		Tokens: float64(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}
