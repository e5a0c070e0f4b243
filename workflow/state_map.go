package workflow

import (
	"context"
	"sync"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
	"golang.org/x/sync/errgroup"
)

// execMap implements spec §4.4.4: ItemsPath must resolve to a sequence;
// each item runs the Iterator sub-machine through an isolated derived
// context, with at most MaxConcurrency (default 1) in flight at once;
// outputs are reassembled in input-item order regardless of completion
// order, and any item's failure fails the whole Map unless caught by
// the Map state's own Catch.
func execMap(ctx context.Context, ec *ExecutionContext, def *StateDef, shapedInput value.Value, rt *Runtime) (kindResult, error) {
	if def.Iterator == nil || def.Iterator.StartAt == "" {
		return kindResult{}, &EngineError{Message: "Map state has no Iterator", Code: CodeValidationError, StateName: ec.CurrentState}
	}

	itemsVal, err := path.Evaluate(def.ItemsPath, shapedInput, ec.View())
	if err != nil {
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeParameterPathFailure, StateName: ec.CurrentState}
	}
	items, ok := value.AsArray(itemsVal)
	if !ok {
		return kindResult{}, &EngineError{Message: "ItemsPath did not resolve to a sequence", Code: CodeTaskFailed, StateName: ec.CurrentState}
	}

	concurrency := def.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	// Snapshot the context view once, before any goroutine starts: every
	// item borrows from this fixed base and overlays its own $$.Map.Item,
	// so no goroutine ever reads ec.Tokens/ec.Cost while a sibling is
	// concurrently writing them through MergeChild below.
	baseView := ec.View()

	outputs := make([]value.Value, len(items))
	var usageMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			itemInput, err := mapItemInput(def, item, i, baseView)
			if err != nil {
				return err
			}

			child := ec.Derive()
			child.MapItem = &MapItemContext{Index: i, Value: item}

			out, err := runToCompletion(gctx, def.Iterator, child, def.Iterator.StartAt, itemInput, rt)

			usageMu.Lock()
			ec.MergeChild(child)
			usageMu.Unlock()

			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if _, ok := err.(*errPause); ok {
			return kindResult{}, err
		}
		if ee, ok := err.(*EngineError); ok {
			return kindResult{}, ee
		}
		return kindResult{}, &EngineError{Message: err.Error(), Code: CodeTaskFailed, StateName: ec.CurrentState, Cause: err}
	}

	// MergeChild already folded every item's usage into ec.Tokens/ec.Cost
	// above; leave kindResult's Tokens/Cost at zero so executeState's
	// AccumulateUsage doesn't add the same amount a second time.
	return kindResult{Raw: value.Array(outputs)}, nil
}

// mapItemInput computes one iteration's input: ItemSelector (resolved as
// Parameters, with $$.Map.Item already in scope) if present; otherwise
// the bare item if it's a mapping, else {value: item, index: i} (spec
// §4.4.4's fallback shape for scalar items). baseView is a snapshot of
// the context taken once before any item starts, so concurrent items
// never share or mutate the same map.
func mapItemInput(def *StateDef, item value.Value, index int, baseView path.ContextView) (value.Value, error) {
	if def.ItemSelector != nil {
		itemCtx := make(path.ContextView, len(baseView)+1)
		for k, v := range baseView {
			itemCtx[k] = v
		}
		itemCtx["Map"] = value.Map{"Item": value.Map{"Index": float64(index), "Value": item}}
		return path.ResolveParameters(def.ItemSelector, item, itemCtx, intrinsicEvaluator)
	}
	if m, ok := value.AsMap(item); ok {
		return m, nil
	}
	return value.Map{"value": item, "index": float64(index)}, nil
}
