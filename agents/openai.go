package agents

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow"
)

// OpenAI is a workflow.Agent backed by a Chat Completions model,
// grounded on the teacher's graph/model/openai adapter.
type OpenAI struct {
	apiKey    string
	modelName string
}

// NewOpenAI returns an OpenAI agent. modelName defaults to "gpt-4o"
// when empty.
func NewOpenAI(apiKey, modelName string) *OpenAI {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &OpenAI{apiKey: apiKey, modelName: modelName}
}

func (o *OpenAI) Invoke(ctx context.Context, input value.Value) (workflow.AgentResult, error) {
	prompt, system, err := extractPrompt(input)
	if err != nil {
		return workflow.AgentResult{}, err
	}

	client := openaisdk.NewClient(option.WithAPIKey(o.apiKey))

	messages := []openaisdk.ChatCompletionMessageParamUnion{}
	if system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}
	messages = append(messages, openaisdk.UserMessage(prompt))

	resp, err := client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(o.modelName),
		Messages: messages,
	})
	if err != nil {
		return workflow.AgentResult{}, fmt.Errorf("agents: openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return workflow.AgentResult{}, fmt.Errorf("agents: openai returned no choices")
	}

	return workflow.AgentResult{
		Output: value.Map{"text": resp.Choices[0].Message.Content},
		Tokens: float64(resp.Usage.TotalTokens),
	}, nil
}
