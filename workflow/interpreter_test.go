package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lyzr-oss/statelang/value"
)

func strPtr(s string) *string { return &s }

func TestRun_TaskPassSucceed(t *testing.T) {
	registry := NewRegistry()
	registry.Register("echo", AgentFunc(func(_ context.Context, input value.Value) (AgentResult, error) {
		return AgentResult{Output: input}, nil
	}))

	def := &Definition{
		StartAt: "Greet",
		States: map[string]*StateDef{
			"Greet": {Type: "Task", Agent: "echo", Next: "Shape"},
			"Shape": {Type: "Pass", Result: value.Map{"done": true}, Next: "Done"},
			"Done":  {Type: "Succeed"},
		},
	}

	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{"hello": "world"}, RunInput{})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s, cause = %s", res.Status, res.Cause)
	}
	out, ok := value.AsMap(res.Output)
	if !ok || out["done"] != true {
		t.Fatalf("unexpected output %#v", res.Output)
	}
}

func TestRun_RetryThenSucceed(t *testing.T) {
	calls := 0
	registry := NewRegistry()
	registry.Register("flaky", AgentFunc(func(_ context.Context, input value.Value) (AgentResult, error) {
		calls++
		if calls < 3 {
			return AgentResult{}, &EngineError{Message: "boom", Code: CodeTimeout}
		}
		return AgentResult{Output: value.Map{"calls": float64(calls)}}, nil
	}))

	def := &Definition{
		StartAt: "Flaky",
		States: map[string]*StateDef{
			"Flaky": {
				Type: "Task", Agent: "flaky", End: true,
				Retry: []RetryRule{{ErrorEquals: []string{CodeTimeout}, MaxAttempts: 5, IntervalSeconds: 0}},
			},
		},
	}

	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{}, RunInput{})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s, cause = %s", res.Status, res.Cause)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	retries := 0
	for _, tr := range res.Trace {
		if tr.Type == "retry" {
			retries++
		}
	}
	if retries != 2 {
		t.Fatalf("expected 2 retry trace entries, got %d", retries)
	}
}

func TestRun_CatchRedirects(t *testing.T) {
	registry := NewRegistry()
	registry.Register("alwaysFails", AgentFunc(func(_ context.Context, _ value.Value) (AgentResult, error) {
		return AgentResult{}, &EngineError{Message: "nope", Code: CodeTaskFailed}
	}))
	registry.Register("echo", AgentFunc(func(_ context.Context, input value.Value) (AgentResult, error) {
		return AgentResult{Output: input}, nil
	}))

	def := &Definition{
		StartAt: "DoWork",
		States: map[string]*StateDef{
			"DoWork": {
				Type: "Task", Agent: "alwaysFails", Next: "Unreachable",
				Catch: []CatchRule{{ErrorEquals: []string{CodeAll}, Next: "Recover", ResultPath: strPtr("$.error")}},
			},
			"Unreachable": {Type: "Succeed"},
			"Recover":     {Type: "Task", Agent: "echo", End: true},
		},
	}

	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{"x": 1.0}, RunInput{})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s, cause = %s", res.Status, res.Cause)
	}
	out, ok := value.AsMap(res.Output)
	if !ok {
		t.Fatalf("expected mapping output, got %#v", res.Output)
	}
	if out["x"] != 1.0 {
		t.Fatalf("original input not preserved: %#v", out)
	}
	errField, ok := value.AsMap(out["error"])
	if !ok || errField["Error"] != CodeTaskFailed {
		t.Fatalf("expected error payload, got %#v", out["error"])
	}
}

func TestRun_UnhandledFailure(t *testing.T) {
	registry := NewRegistry()
	def := &Definition{
		StartAt: "Boom",
		States: map[string]*StateDef{
			"Boom": {Type: "Fail", Error: "Custom.Error", Cause: "bad thing"},
		},
	}
	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{}, RunInput{})
	if res.Status != StatusFailure {
		t.Fatalf("status = %s", res.Status)
	}
	if res.ErrorCode != "Custom.Error" {
		t.Fatalf("error code = %s", res.ErrorCode)
	}
}

func TestRun_ChoiceRouting(t *testing.T) {
	def := &Definition{
		StartAt: "Branch",
		States: map[string]*StateDef{
			"Branch": {
				Type: "Choice",
				Choices: []ChoiceRule{
					{Variable: "$.n", NumericGreaterThan: floatPtr(10), Next: "Big"},
				},
				Default: "Small",
			},
			"Big":   {Type: "Pass", Result: value.Map{"size": "big"}, End: true},
			"Small": {Type: "Pass", Result: value.Map{"size": "small"}, End: true},
		},
	}
	eng := NewEngine(def, NewRegistry())

	res := eng.Run(context.Background(), value.Map{"n": 20.0}, RunInput{})
	out, _ := value.AsMap(res.Output)
	if out["size"] != "big" {
		t.Fatalf("expected big, got %#v", res.Output)
	}

	res2 := eng.Run(context.Background(), value.Map{"n": 1.0}, RunInput{})
	out2, _ := value.AsMap(res2.Output)
	if out2["size"] != "small" {
		t.Fatalf("expected small, got %#v", res2.Output)
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestRun_MapOrdersOutputsAndBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	registry := NewRegistry()
	registry.Register("double", AgentFunc(func(_ context.Context, input value.Value) (AgentResult, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		m, _ := value.AsMap(input)
		v, _ := value.AsNumber(m["value"])
		return AgentResult{Output: value.Map{"doubled": v * 2}, Tokens: 10, Cost: 0.01}, nil
	}))

	def := &Definition{
		StartAt: "DoubleAll",
		States: map[string]*StateDef{
			"DoubleAll": {
				Type: "Map", ItemsPath: "$.items", MaxConcurrency: 2, End: true,
				Iterator: &Definition{
					StartAt: "Double",
					States: map[string]*StateDef{
						"Double": {Type: "Task", Agent: "double", End: true},
					},
				},
			},
		},
	}

	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{"items": value.Array{
		value.Map{"value": 1.0}, value.Map{"value": 2.0}, value.Map{"value": 3.0},
	}}, RunInput{})

	if res.Status != StatusSuccess {
		t.Fatalf("status = %s cause = %s", res.Status, res.Cause)
	}
	arr, ok := value.AsArray(res.Output)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected 3 outputs, got %#v", res.Output)
	}
	for i, want := range []float64{2, 4, 6} {
		m, _ := value.AsMap(arr[i])
		if m["doubled"] != want {
			t.Fatalf("item %d: want %v got %#v", i, want, m["doubled"])
		}
	}
	if maxInFlight > 2 {
		t.Fatalf("MaxConcurrency=2 but %d items ran at once", maxInFlight)
	}
	// Three item invocations at 10 tokens/0.01 cost each, counted exactly
	// once — not doubled by both MergeChild and AccumulateUsage.
	if res.Tokens != 30 {
		t.Fatalf("expected Tokens=30 (counted once), got %v", res.Tokens)
	}
	if diff := res.Cost - 0.03; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("expected Cost~=0.03 (counted once), got %v", res.Cost)
	}
}

func TestRun_MapPropagatesItemFailure(t *testing.T) {
	registry := NewRegistry()
	registry.Register("explode", AgentFunc(func(_ context.Context, _ value.Value) (AgentResult, error) {
		return AgentResult{}, &EngineError{Message: "item failed", Code: CodeTaskFailed}
	}))
	def := &Definition{
		StartAt: "Explode",
		States: map[string]*StateDef{
			"Explode": {
				Type: "Map", ItemsPath: "$.items", End: true,
				Iterator: &Definition{
					StartAt: "Work",
					States:  map[string]*StateDef{"Work": {Type: "Task", Agent: "explode", End: true}},
				},
			},
		},
	}
	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{"items": value.Array{value.Map{}}}, RunInput{})
	if res.Status != StatusFailure {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestRun_ParallelBranchesInOrder(t *testing.T) {
	registry := NewRegistry()
	registry.Register("tag", AgentFunc(func(_ context.Context, input value.Value) (AgentResult, error) {
		m, _ := value.AsMap(input)
		return AgentResult{Output: value.Map{"saw": m["tag"]}, Tokens: 5}, nil
	}))

	branch := func(tag string) *Definition {
		return &Definition{
			StartAt: "Tag",
			States: map[string]*StateDef{
				"Tag": {Type: "Pass", Result: value.Map{"tag": tag}, Next: "Call"},
				"Call": {Type: "Task", Agent: "tag", End: true},
			},
		}
	}

	def := &Definition{
		StartAt: "Fan",
		States: map[string]*StateDef{
			"Fan": {Type: "Parallel", End: true, Branches: []*Definition{branch("a"), branch("b"), branch("c")}},
		},
	}
	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{}, RunInput{})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s cause = %s", res.Status, res.Cause)
	}
	arr, ok := value.AsArray(res.Output)
	if !ok || len(arr) != 3 {
		t.Fatalf("expected 3 branch outputs, got %#v", res.Output)
	}
	for i, want := range []string{"a", "b", "c"} {
		m, _ := value.AsMap(arr[i])
		if m["saw"] != want {
			t.Fatalf("branch %d: want %q got %#v", i, want, m["saw"])
		}
	}
	// Three branch invocations at 5 tokens each, counted exactly once —
	// not doubled by both MergeChild and AccumulateUsage.
	if res.Tokens != 15 {
		t.Fatalf("expected Tokens=15 (counted once), got %v", res.Tokens)
	}
}

func TestRun_ApprovalPausesAndResumes(t *testing.T) {
	handler := &pendingHandler{}
	def := &Definition{
		StartAt: "NeedsSignOff",
		States: map[string]*StateDef{
			"NeedsSignOff": {
				Type:           "Approval",
				Prompt:         "Please review the document",
				Options:        value.Array{"approve", "reject"},
				Editable:       true,
				TimeoutSeconds: 300,
				ResultPath:     strPtr("$.decision"),
				End:            true,
			},
		},
	}
	eng := NewEngine(def, NewRegistry(), WithApprovalHandler(handler))

	res := eng.Run(context.Background(), value.Map{"doc": "v1"}, RunInput{})
	if res.Status != StatusPaused {
		t.Fatalf("expected paused, got %s", res.Status)
	}
	if res.PausedAtState != "NeedsSignOff" {
		t.Fatalf("paused at %q", res.PausedAtState)
	}
	if res.PendingInput["type"] != "approval" {
		t.Fatalf("expected pendingInput.type = approval, got %#v", res.PendingInput["type"])
	}
	if res.PendingInput["prompt"] != "Please review the document" {
		t.Fatalf("expected pendingInput.prompt to carry the resolved prompt, got %#v", res.PendingInput["prompt"])
	}
	if opts, ok := value.AsArray(res.PendingInput["options"]); !ok || len(opts) != 2 {
		t.Fatalf("expected pendingInput.options = [approve, reject], got %#v", res.PendingInput["options"])
	}
	if res.PendingInput["editable"] != true {
		t.Fatalf("expected pendingInput.editable = true, got %#v", res.PendingInput["editable"])
	}
	if res.PendingInput["timeout"] != 300.0 {
		t.Fatalf("expected pendingInput.timeout = 300, got %#v", res.PendingInput["timeout"])
	}

	resumed := eng.Run(context.Background(), value.Map{"doc": "v1"}, RunInput{
		ResumeFromState: "NeedsSignOff",
		ResumeData:      value.Map{"approval": "approved", "approver": "alice"},
	})
	if resumed.Status != StatusSuccess {
		t.Fatalf("resume status = %s cause = %s", resumed.Status, resumed.Cause)
	}
	out, _ := value.AsMap(resumed.Output)
	decision, ok := value.AsMap(out["decision"])
	if !ok || decision["approval"] != "approved" || decision["approver"] != "alice" {
		t.Fatalf("unexpected decision %#v", out["decision"])
	}
}

type pendingHandler struct{}

func (pendingHandler) Decide(ApprovalRequest) (ApprovalDecision, bool, error) {
	return ApprovalDecision{}, true, nil
}

func TestRun_CheckpointSavesAndRecords(t *testing.T) {
	store := &recordingStore{}
	def := &Definition{
		StartAt: "Snap",
		States: map[string]*StateDef{
			"Snap": {Type: "Checkpoint", Name: "milestone-1", End: true},
		},
	}
	eng := NewEngine(def, NewRegistry(), WithCheckpointStore(store))
	res := eng.Run(context.Background(), value.Map{}, RunInput{})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s cause = %s", res.Status, res.Cause)
	}
	if store.saved != 1 {
		t.Fatalf("expected 1 checkpoint save, got %d", store.saved)
	}
	found := false
	for _, tr := range res.Trace {
		if tr.Type == "checkpoint_created" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a checkpoint_created trace record")
	}
}

type recordingStore struct{ saved int }

func (s *recordingStore) Save(_ context.Context, _ CheckpointSnapshot) error {
	s.saved++
	return nil
}

func TestRun_DebateCollectsHistoryAndArbitrates(t *testing.T) {
	registry := NewRegistry()
	registry.Register("pro", AgentFunc(func(_ context.Context, _ value.Value) (AgentResult, error) {
		return AgentResult{Output: "for it"}, nil
	}))
	registry.Register("con", AgentFunc(func(_ context.Context, _ value.Value) (AgentResult, error) {
		return AgentResult{Output: "against it"}, nil
	}))
	registry.Register("judge", AgentFunc(func(_ context.Context, input value.Value) (AgentResult, error) {
		m, _ := value.AsMap(input)
		hist, _ := value.AsArray(m["history"])
		return AgentResult{Output: value.Map{"turns": float64(len(hist)), "consensus": true}}, nil
	}))

	def := &Definition{
		StartAt: "Debate",
		States: map[string]*StateDef{
			"Debate": {
				Type: "Debate", End: true,
				Participants:     []string{"pro", "con"},
				Arbiter:          "judge",
				Rounds:           2,
				RequireConsensus: true,
			},
		},
	}
	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{}, RunInput{})
	if res.Status != StatusSuccess {
		t.Fatalf("status = %s cause = %s", res.Status, res.Cause)
	}
	out, _ := value.AsMap(res.Output)
	if out["consensus"] != true {
		t.Fatalf("expected consensus true, got %#v", out["consensus"])
	}
	decision, ok := value.AsMap(out["decision"])
	if !ok || decision["turns"] != 4.0 {
		t.Fatalf("expected judge to see 4 turns, got %#v", out["decision"])
	}
}

func TestRun_StateNotFound(t *testing.T) {
	def := &Definition{
		StartAt: "Missing",
		States:  map[string]*StateDef{},
	}
	eng := NewEngine(def, NewRegistry())
	res := eng.Run(context.Background(), value.Map{}, RunInput{})
	if res.Status != StatusFailure || res.ErrorCode != CodeStateNotFound {
		t.Fatalf("got status=%s code=%s", res.Status, res.ErrorCode)
	}
}

func TestRun_MaxStepsExceeded(t *testing.T) {
	def := &Definition{
		StartAt: "Loop",
		States: map[string]*StateDef{
			"Loop": {Type: "Pass", Next: "Loop"},
		},
	}
	eng := NewEngine(def, NewRegistry(), WithMaxSteps(5))
	res := eng.Run(context.Background(), value.Map{}, RunInput{})
	if res.Status != StatusFailure {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestErrorCode_WrapsAgentFuncErrors(t *testing.T) {
	registry := NewRegistry()
	registry.Register("raw", AgentFunc(func(_ context.Context, _ value.Value) (AgentResult, error) {
		return AgentResult{}, errors.New("unclassified failure")
	}))
	def := &Definition{
		StartAt: "Raw",
		States:  map[string]*StateDef{"Raw": {Type: "Task", Agent: "raw", End: true}},
	}
	eng := NewEngine(def, registry)
	res := eng.Run(context.Background(), value.Map{}, RunInput{})
	if res.Status != StatusFailure || res.ErrorCode != CodeTaskFailed {
		t.Fatalf("status=%s code=%s", res.Status, res.ErrorCode)
	}
}
