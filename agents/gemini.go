package agents

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow"
)

// Gemini is a workflow.Agent backed by Google's generative-ai-go SDK,
// grounded on the teacher's graph/model/google adapter.
type Gemini struct {
	apiKey    string
	modelName string
}

// NewGemini returns a Gemini agent. modelName defaults to
// "gemini-1.5-pro" when empty.
func NewGemini(apiKey, modelName string) *Gemini {
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	return &Gemini{apiKey: apiKey, modelName: modelName}
}

func (g *Gemini) Invoke(ctx context.Context, input value.Value) (workflow.AgentResult, error) {
	prompt, system, err := extractPrompt(input)
	if err != nil {
		return workflow.AgentResult{}, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return workflow.AgentResult{}, fmt.Errorf("agents: gemini client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(g.modelName)
	if system != "" {
		genModel.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}

	resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return workflow.AgentResult{}, fmt.Errorf("agents: gemini call: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return workflow.AgentResult{}, fmt.Errorf("agents: gemini returned no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	var tokens float64
	if resp.UsageMetadata != nil {
		tokens = float64(resp.UsageMetadata.TotalTokenCount)
	}

	return workflow.AgentResult{
		Output: value.Map{"text": text},
		Tokens: tokens,
	}, nil
}
