package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/lyzr-oss/statelang/value"
)

func TestExtractPrompt_RequiresMapping(t *testing.T) {
	if _, _, err := extractPrompt(value.Array{1, 2}); err == nil {
		t.Fatalf("expected error for non-mapping input")
	}
}

func TestExtractPrompt_RequiresNonEmptyPrompt(t *testing.T) {
	if _, _, err := extractPrompt(value.Map{"prompt": ""}); err == nil {
		t.Fatalf("expected error for empty prompt")
	}
}

func TestExtractPrompt_ReadsSystem(t *testing.T) {
	prompt, system, err := extractPrompt(value.Map{"prompt": "hello", "system": "be terse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt != "hello" || system != "be terse" {
		t.Fatalf("unexpected prompt/system: %q %q", prompt, system)
	}
}

func TestMock_EchoesByDefault(t *testing.T) {
	m := NewMock()
	res, err := m.Invoke(context.Background(), value.Map{"prompt": "ping"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	out, _ := value.AsMap(res.Output)
	text, _ := value.AsString(out["text"])
	if text != "ping" {
		t.Fatalf("expected echo, got %q", text)
	}
}

func TestMock_CustomReply(t *testing.T) {
	m := &Mock{Reply: func(p string) string { return strings.ToUpper(p) }}
	res, err := m.Invoke(context.Background(), value.Map{"prompt": "shout"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	out, _ := value.AsMap(res.Output)
	text, _ := value.AsString(out["text"])
	if text != "SHOUT" {
		t.Fatalf("unexpected reply %q", text)
	}
}
