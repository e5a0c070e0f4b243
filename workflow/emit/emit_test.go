package emit_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/lyzr-oss/statelang/workflow/emit"
)

func TestLogEmitterText(t *testing.T) {
	var buf bytes.Buffer
	e := emit.NewLogEmitter(&buf, false)
	e.Emit(emit.Event{RunID: "run-1", Step: 1, StateName: "Start", Kind: "state_enter"})
	out := buf.String()
	if !strings.Contains(out, "[state_enter]") || !strings.Contains(out, "runID=run-1") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLogEmitterJSON(t *testing.T) {
	var buf bytes.Buffer
	e := emit.NewLogEmitter(&buf, true)
	e.Emit(emit.Event{RunID: "run-1", Kind: "workflow_start"})
	if !strings.Contains(buf.String(), `"kind":"workflow_start"`) {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestLogEmitterBatch(t *testing.T) {
	var buf bytes.Buffer
	e := emit.NewLogEmitter(&buf, false)
	err := e.EmitBatch(context.Background(), []emit.Event{
		{RunID: "r", Kind: "a"},
		{RunID: "r", Kind: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Errorf("expected 2 lines, got %q", buf.String())
	}
}

func TestNullEmitter(t *testing.T) {
	e := emit.NewNullEmitter()
	e.Emit(emit.Event{})
	if err := e.EmitBatch(context.Background(), []emit.Event{{}}); err != nil {
		t.Fatal(err)
	}
	if err := e.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
}
