// Command workflowctl runs a declarative workflow document against a
// JSON input and prints the resulting Result as JSON. Grounded on the
// teacher's examples/*/main.go entry points, narrowed to a flag-driven
// CLI rather than a hardcoded demo workflow.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/lyzr-oss/statelang/agents"
	"github.com/lyzr-oss/statelang/checkpointstore"
	"github.com/lyzr-oss/statelang/value"
	"github.com/lyzr-oss/statelang/workflow"
	"github.com/lyzr-oss/statelang/workflow/emit"
)

func main() {
	workflowPath := flag.String("workflow", "", "path to a workflow JSON document (required)")
	inputPath := flag.String("input", "", "path to a JSON input document (defaults to {})")
	checkpointDB := flag.String("checkpoint-db", "", "optional sqlite file to persist Checkpoint-state snapshots")
	verbose := flag.Bool("v", false, "emit state-transition events to stderr")
	tracing := flag.Bool("tracing", false, "emit one OpenTelemetry span per state execution")
	flag.Parse()

	if *workflowPath == "" {
		fmt.Fprintln(os.Stderr, "workflowctl: -workflow is required")
		flag.Usage()
		os.Exit(2)
	}

	def, err := loadDefinition(*workflowPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "workflowctl: %v\n", err)
		os.Exit(1)
	}

	input, err := loadInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "workflowctl: %v\n", err)
		os.Exit(1)
	}

	if issues := workflow.Validate(def); len(issues) > 0 {
		fatal := false
		for _, iss := range issues {
			fmt.Fprintln(os.Stderr, "workflowctl: "+iss.String())
			if iss.Fatal {
				fatal = true
			}
		}
		if fatal {
			os.Exit(1)
		}
	}

	registry := workflow.NewRegistry()
	registry.Register("mock", agents.NewMock())
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		registry.Register("anthropic", agents.NewAnthropic(key, os.Getenv("ANTHROPIC_MODEL")))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		registry.Register("openai", agents.NewOpenAI(key, os.Getenv("OPENAI_MODEL")))
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		registry.Register("gemini", agents.NewGemini(key, os.Getenv("GEMINI_MODEL")))
	}

	// -tracing wins over -v: an Engine takes a single Emitter, and a span
	// per state is more useful than a log line once a collector is wired.
	opts := []workflow.Option{}
	if *verbose {
		opts = append(opts, workflow.WithEmitter(emit.NewLogEmitter(os.Stderr, false)))
	}
	if *tracing {
		tp := sdktrace.NewTracerProvider()
		otel.SetTracerProvider(tp)
		defer tp.Shutdown(context.Background())
		opts = append(opts, workflow.WithEmitter(emit.NewOTelEmitter(otel.Tracer("workflowctl"))))
	}
	if *checkpointDB != "" {
		store, err := checkpointstore.NewSQLiteStore(*checkpointDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "workflowctl: checkpoint store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		opts = append(opts, workflow.WithCheckpointStore(store))
	}

	engine := workflow.NewEngine(def, registry, opts...)
	result := engine.Run(context.Background(), input, workflow.RunInput{})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "workflowctl: encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if result.Status == workflow.StatusFailure {
		os.Exit(1)
	}
}

func loadDefinition(path string) (*workflow.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	var def workflow.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse workflow file: %w", err)
	}
	return &def, nil
}

func loadInput(path string) (value.Value, error) {
	if path == "" {
		return value.Map{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input file: %w", err)
	}
	var v value.Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse input file: %w", err)
	}
	return v, nil
}
