package emit

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter projects workflow events onto OpenTelemetry spans: one span
// per run (opened on workflow_start, closed on workflow_complete or
// workflow_error) and one child span per state execution (opened on
// state_enter, closed on state_exit). Retry and catch events, which are
// handled outcomes rather than span-ending failures, are recorded as span
// events on the active state span instead of being marked as span errors.
type OTelEmitter struct {
	tracer trace.Tracer

	mu        sync.Mutex
	runSpans  map[string]struct {
		ctx  context.Context
		span trace.Span
	}
	stateSpans map[string]struct {
		ctx  context.Context
		span trace.Span
	}
}

// NewOTelEmitter returns an OTelEmitter using the given tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{
		tracer: tracer,
		runSpans: make(map[string]struct {
			ctx  context.Context
			span trace.Span
		}),
		stateSpans: make(map[string]struct {
			ctx  context.Context
			span trace.Span
		}),
	}
}

func (o *OTelEmitter) Emit(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.Kind {
	case "workflow_start":
		ctx, span := o.tracer.Start(context.Background(), "workflow.run",
			trace.WithAttributes(attribute.String("run.id", event.RunID)))
		o.runSpans[event.RunID] = struct {
			ctx  context.Context
			span trace.Span
		}{ctx, span}

	case "state_enter":
		run, ok := o.runSpans[event.RunID]
		parent := context.Background()
		if ok {
			parent = run.ctx
		}
		ctx, span := o.tracer.Start(parent, "workflow.state",
			trace.WithAttributes(
				attribute.String("run.id", event.RunID),
				attribute.String("state.name", event.StateName),
				attribute.Int("step", event.Step),
			))
		o.stateSpans[stateKey(event)] = struct {
			ctx  context.Context
			span trace.Span
		}{ctx, span}

	case "retry", "catch":
		if s, ok := o.stateSpans[stateKey(event)]; ok {
			s.span.AddEvent(event.Kind, trace.WithAttributes(metaAttrs(event.Meta)...))
		}

	case "state_exit":
		if s, ok := o.stateSpans[stateKey(event)]; ok {
			s.span.End()
			delete(o.stateSpans, stateKey(event))
		}

	case "workflow_complete", "workflow_error":
		if r, ok := o.runSpans[event.RunID]; ok {
			if event.Kind == "workflow_error" {
				r.span.SetStatus(codes.Error, toString(event.Meta["error"]))
				r.span.SetAttributes(metaAttrs(event.Meta)...)
			}
			r.span.End()
			delete(o.runSpans, event.RunID)
		}
	}
}

func stateKey(event Event) string {
	return event.RunID + "/" + event.StateName
}

func metaAttrs(meta map[string]any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(meta))
	for k, v := range meta {
		attrs = append(attrs, attribute.String(k, toString(v)))
	}
	return attrs
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func (o *OTelEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		o.Emit(e)
	}
	return nil
}

// Flush ends any spans left open (e.g. a run that paused without a
// workflow_complete/workflow_error event) so nothing leaks.
func (o *OTelEmitter) Flush(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for k, s := range o.stateSpans {
		s.span.End()
		delete(o.stateSpans, k)
	}
	for k, r := range o.runSpans {
		r.span.End()
		delete(o.runSpans, k)
	}
	return nil
}
