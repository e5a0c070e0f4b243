package path

import (
	"strings"

	"github.com/lyzr-oss/statelang/value"
)

// IntrinsicEvaluator calls a "States.Name(...)" expression and returns its
// result. The path package depends on it only through this function type so
// that the intrinsics package (which itself calls back into path.Evaluate
// for path-valued arguments) can depend on path without a cycle.
type IntrinsicEvaluator func(expr string, data value.Value, ctx ContextView) (value.Value, error)

// IsIntrinsicCall reports whether s is a "States.Name(...)" call expression.
func IsIntrinsicCall(s string) bool {
	return strings.HasPrefix(s, "States.") && strings.Contains(s, "(")
}

// ResolveParameters evaluates a Parameters template against data and ctx.
//
// For each key in template:
//   - if the key ends in ".$" and the value is a string starting with
//     "States." and containing "(", it is an intrinsic call — evaluated
//     via evalIntrinsic and stored under the key with ".$" stripped.
//   - else if the key ends in ".$" and the value is a string starting
//     with "$", it is a path — evaluated via Evaluate and stored under
//     the key with ".$" stripped.
//   - else if the value is itself a mapping, recurse.
//   - else if the value is a sequence, resolve each element (mappings
//     recurse, literals pass through — arrays do not carry ".$" key
//     suffixes since they have no keys, but their elements may be
//     sub-templates).
//   - else the literal value is passed through unchanged.
func ResolveParameters(template value.Value, data value.Value, ctx ContextView, evalIntrinsic IntrinsicEvaluator) (value.Value, error) {
	m, ok := value.AsMap(template)
	if !ok {
		return resolveValue(template, data, ctx, evalIntrinsic)
	}

	out := make(value.Map, len(m))
	for k, v := range m {
		if strings.HasSuffix(k, ".$") {
			resolvedKey := strings.TrimSuffix(k, ".$")
			s, isStr := value.AsString(v)
			if !isStr {
				return nil, &ErrMalformedPath{Path: k}
			}
			var resolved value.Value
			var err error
			switch {
			case IsIntrinsicCall(s):
				resolved, err = evalIntrinsic(s, data, ctx)
			default:
				resolved, err = Evaluate(s, data, ctx)
			}
			if err != nil {
				return nil, err
			}
			out[resolvedKey] = resolved
			continue
		}

		resolved, err := resolveValue(v, data, ctx, evalIntrinsic)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

// resolveValue resolves a non-keyed template value: mappings recurse,
// sequences resolve element-wise, everything else passes through
// literally. Bare strings that happen to start with "$" are NOT
// evaluated here — only ".$"-suffixed keys trigger path/intrinsic
// evaluation (spec §4.1); a plain string value is always a literal.
func resolveValue(v value.Value, data value.Value, ctx ContextView, evalIntrinsic IntrinsicEvaluator) (value.Value, error) {
	switch t := v.(type) {
	case value.Map:
		return ResolveParameters(t, data, ctx, evalIntrinsic)
	case value.Array:
		out := make(value.Array, len(t))
		for i, elem := range t {
			resolved, err := resolveValue(elem, data, ctx, evalIntrinsic)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}
