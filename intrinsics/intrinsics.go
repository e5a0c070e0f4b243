// Package intrinsics implements the closed States.* function catalog
// (spec §4.2/§6): pure, side-effect-free value transforms reachable from
// ".$"-suffixed Parameters keys. It depends on package path for argument
// evaluation and in turn supplies path.ResolveParameters with the
// path.IntrinsicEvaluator it needs to resolve "States.Name(...)" values —
// the dependency runs one way only (intrinsics -> path), so there is no
// cycle despite the mutual need.
package intrinsics

import (
	"strings"

	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

// fn is one catalog entry: a resolved-argument function plus its arity
// bounds, used both to dispatch and to produce a uniform arity-violation
// message.
type fn struct {
	minArgs, maxArgs int // maxArgs < 0 means unbounded
	call             func(args []value.Value, ctx path.ContextView) (value.Value, error)
}

// Eval implements path.IntrinsicEvaluator: it parses and evaluates a
// single "States.Name(arg1, arg2, ...)" expression against data and ctx.
func Eval(expr string, data value.Value, ctx path.ContextView) (value.Value, error) {
	name, rawArgs, err := splitCall(expr)
	if err != nil {
		return nil, err
	}
	shortName := strings.TrimPrefix(name, "States.")

	entry, ok := catalog(shortName)
	if !ok {
		return nil, fail(shortName, "unknown intrinsic function")
	}

	args := make([]value.Value, len(rawArgs))
	for i, tok := range rawArgs {
		v, err := resolveArg(tok, data, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if len(args) < entry.minArgs || (entry.maxArgs >= 0 && len(args) > entry.maxArgs) {
		return nil, fail(shortName, "wrong arity: got %d argument(s)", len(args))
	}
	return entry.call(args, ctx)
}

// resolveArg applies the spec's per-argument type discrimination: quoted
// string literal, bare number, true/false/null literal, "$"-rooted path,
// nested "States." call, or else a bare identifier string.
func resolveArg(tok argToken, data value.Value, ctx path.ContextView) (value.Value, error) {
	s := string(tok)

	if lit, ok := unquoteStringLiteral(s); ok {
		return lit, nil
	}
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if n, ok := parseNumberLiteral(s); ok {
		return n, nil
	}
	if strings.HasPrefix(s, "$") {
		return path.Evaluate(s, data, ctx)
	}
	if strings.HasPrefix(s, "States.") && strings.Contains(s, "(") {
		return Eval(s, data, ctx)
	}
	return s, nil
}

// catalog looks up a catalog entry by its unqualified name (without the
// "States." prefix).
func catalog(name string) (fn, bool) {
	f, ok := catalogTable[name]
	return f, ok
}

var catalogTable = map[string]fn{
	"Format":         {1, -1, biFormat},
	"StringToJson":   {1, 1, biStringToJSON},
	"JsonToString":   {1, 1, biJSONToString},
	"Array":          {0, -1, biArray},
	"ArrayPartition": {2, 2, biArrayPartition},
	"ArrayContains":  {2, 2, biArrayContains},
	"ArrayGetItem":   {2, 2, biArrayGetItem},
	"ArrayLength":    {1, 1, biArrayLength},
	"ArrayRange":     {2, 3, biArrayRange},
	"ArrayUnique":    {1, 1, biArrayUnique},
	"ArrayConcat":    {1, -1, biArrayConcat},
	"MathAdd":        {2, 2, biMathAdd},
	"MathSubtract":   {2, 2, biMathSubtract},
	"MathMultiply":   {2, 2, biMathMultiply},
	"MathRandom":     {0, 0, biMathRandom},
	"Hash":           {2, 2, biHash},
	"Base64Encode":   {1, 1, biBase64Encode},
	"Base64Decode":   {1, 1, biBase64Decode},
	"UUID":           {0, 0, biUUID},
	"TokenCount":     {1, 1, biTokenCount},
	"Truncate":       {2, 2, biTruncate},
	"Merge":          {0, -1, biMerge},
	"Pick":           {2, -1, biPick},
	"Omit":           {2, -1, biOmit},
	"CurrentCost":    {0, 0, biCurrentCost},
	"CurrentTokens":  {0, 0, biCurrentTokens},
}
