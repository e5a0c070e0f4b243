package path_test

import (
	"testing"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

func TestEvaluate(t *testing.T) {
	data := value.Map{
		"a": value.Map{
			"b": value.Array{value.Map{"x": 1.0}, value.Map{"x": 2.0}},
		},
		"score": 90.0,
	}

	tests := []struct {
		name string
		expr string
		want value.Value
	}{
		{"root", "$", data},
		{"nested property", "$.a.b[0].x", 1.0},
		{"negative index", "$.a.b[-1].x", 2.0},
		{"missing intermediate key", "$.a.c.d", nil},
		{"out of range index", "$.a.b[5]", nil},
		{"scalar", "$.score", 90.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := path.Evaluate(tt.expr, data, nil)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.expr, err)
			}
			if !value.Equal(got, tt.want) {
				t.Errorf("Evaluate(%q) = %#v, want %#v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluate_MalformedPath(t *testing.T) {
	_, err := path.Evaluate("not-a-path", value.Map{}, nil)
	if err == nil {
		t.Fatal("expected error for malformed path")
	}
}

func TestEvaluate_ContextRequiredWithoutContext(t *testing.T) {
	_, err := path.Evaluate("$$.Execution.Id", value.Map{}, nil)
	if err == nil {
		t.Fatal("expected error evaluating $$ path without a context view")
	}
}

func TestEvaluate_ContextRoot(t *testing.T) {
	ctx := value.Map{"Execution": value.Map{"Id": "exec-1"}}
	got, err := path.Evaluate("$$.Execution.Id", value.Map{}, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "exec-1" {
		t.Errorf("got %v, want exec-1", got)
	}
}

func TestSet(t *testing.T) {
	t.Run("creates missing intermediate mappings", func(t *testing.T) {
		out, err := path.Set("$.a.b.c", value.Map{}, 42.0)
		if err != nil {
			t.Fatal(err)
		}
		got, _ := path.Evaluate("$.a.b.c", out, nil)
		if got != 42.0 {
			t.Errorf("got %v, want 42", got)
		}
	})

	t.Run("root replace wraps scalars", func(t *testing.T) {
		out, err := path.Set("$", value.Map{"old": true}, "hello")
		if err != nil {
			t.Fatal(err)
		}
		m, ok := value.AsMap(out)
		if !ok || m["value"] != "hello" {
			t.Errorf("got %#v, want {value: hello}", out)
		}
	})

	t.Run("root replace with mapping passes through", func(t *testing.T) {
		out, err := path.Set("$", value.Map{"old": true}, value.Map{"new": true})
		if err != nil {
			t.Fatal(err)
		}
		m, _ := value.AsMap(out)
		if m["new"] != true {
			t.Errorf("got %#v", out)
		}
	})

	t.Run("null literal discards the value", func(t *testing.T) {
		data := value.Map{"keep": 1.0}
		out, err := path.Set("null", data, "ignored")
		if err != nil {
			t.Fatal(err)
		}
		if !value.Equal(out, data) {
			t.Errorf("expected data unchanged, got %#v", out)
		}
	})

	t.Run("does not mutate original", func(t *testing.T) {
		data := value.Map{"a": value.Map{"b": 1.0}}
		_, err := path.Set("$.a.b", data, 2.0)
		if err != nil {
			t.Fatal(err)
		}
		inner, _ := value.AsMap(data["a"])
		if inner["b"] != 1.0 {
			t.Errorf("original data was mutated: %#v", data)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		data := value.Map{"a": 1.0}
		once, err := path.Set("$.b.c", data, "v")
		if err != nil {
			t.Fatal(err)
		}
		twice, err := path.Set("$.b.c", once, "v")
		if err != nil {
			t.Fatal(err)
		}
		if !value.Equal(once, twice) {
			t.Errorf("Set is not idempotent: %#v != %#v", once, twice)
		}
	})

	t.Run("indexed write extends array", func(t *testing.T) {
		out, err := path.Set("$.items[2]", value.Map{}, "x")
		if err != nil {
			t.Fatal(err)
		}
		arr, _ := value.AsArray(out.(value.Map)["items"])
		if len(arr) != 3 || arr[2] != "x" {
			t.Errorf("got %#v", arr)
		}
	})
}

func TestResolveParameters(t *testing.T) {
	data := value.Map{"r1": value.Map{"s": 1.0}}
	template := value.Map{
		"combined.$": "$.r1.s",
		"literal":    "unchanged",
		"nested": value.Map{
			"inner.$": "$.r1.s",
		},
	}

	out, err := path.ResolveParameters(template, data, nil, noopIntrinsic)
	if err != nil {
		t.Fatal(err)
	}
	m, _ := value.AsMap(out)
	if m["combined"] != 1.0 {
		t.Errorf("combined = %v, want 1", m["combined"])
	}
	if m["literal"] != "unchanged" {
		t.Errorf("literal = %v, want unchanged", m["literal"])
	}
	nested, _ := value.AsMap(m["nested"])
	if nested["inner"] != 1.0 {
		t.Errorf("nested.inner = %v, want 1", nested["inner"])
	}
}

func TestResolveParameters_IntrinsicCall(t *testing.T) {
	called := false
	eval := func(expr string, data value.Value, ctx path.ContextView) (value.Value, error) {
		called = true
		if expr != "States.Format('hi {}', $.name)" {
			t.Errorf("unexpected expr: %s", expr)
		}
		return "hi bob", nil
	}

	template := value.Map{"msg.$": "States.Format('hi {}', $.name)"}
	out, err := path.ResolveParameters(template, value.Map{"name": "bob"}, nil, eval)
	if err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Fatal("intrinsic evaluator was not invoked")
	}
	m, _ := value.AsMap(out)
	if m["msg"] != "hi bob" {
		t.Errorf("got %v", m["msg"])
	}
}

func noopIntrinsic(expr string, data value.Value, ctx path.ContextView) (value.Value, error) {
	return nil, nil
}
