package intrinsics

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/lyzr-oss/statelang/path"
	"github.com/lyzr-oss/statelang/value"
)

func stringify(v value.Value) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

func biFormat(args []value.Value, _ path.ContextView) (value.Value, error) {
	template, ok := value.AsString(args[0])
	if !ok {
		return nil, fail("Format", "first argument must be a string template")
	}
	rest := args[1:]
	var b strings.Builder
	argIdx := 0
	for i := 0; i < len(template); i++ {
		if template[i] == '{' && i+1 < len(template) && template[i+1] == '}' {
			if argIdx >= len(rest) {
				return nil, fail("Format", "template has more {} placeholders than arguments")
			}
			b.WriteString(stringify(rest[argIdx]))
			argIdx++
			i++
			continue
		}
		b.WriteByte(template[i])
	}
	return b.String(), nil
}

func biStringToJSON(args []value.Value, _ path.ContextView) (value.Value, error) {
	s, ok := value.AsString(args[0])
	if !ok {
		return nil, fail("StringToJson", "argument must be a string")
	}
	var out value.Value
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fail("StringToJson", "invalid JSON: %v", err)
	}
	return normalizeJSON(out), nil
}

// normalizeJSON walks encoding/json's generic decode output
// (map[string]interface{}, []interface{}) and rebuilds it as value.Map /
// value.Array. Those are type aliases of the same types, so the result
// has the same dynamic types as the input.
func normalizeJSON(v any) value.Value {
	switch t := v.(type) {
	case map[string]any:
		m := make(value.Map, len(t))
		for k, val := range t {
			m[k] = normalizeJSON(val)
		}
		return m
	case []any:
		a := make(value.Array, len(t))
		for i, val := range t {
			a[i] = normalizeJSON(val)
		}
		return a
	default:
		return t
	}
}

func biJSONToString(args []value.Value, _ path.ContextView) (value.Value, error) {
	b, err := json.Marshal(args[0])
	if err != nil {
		return nil, fail("JsonToString", "value is not serializable: %v", err)
	}
	return string(b), nil
}

func biArray(args []value.Value, _ path.ContextView) (value.Value, error) {
	out := make(value.Array, len(args))
	copy(out, args)
	return out, nil
}

func biArrayPartition(args []value.Value, _ path.ContextView) (value.Value, error) {
	arr, ok := value.AsArray(args[0])
	if !ok {
		return nil, fail("ArrayPartition", "first argument must be an array")
	}
	size, ok := value.AsNumber(args[1])
	if !ok || size < 1 {
		return nil, fail("ArrayPartition", "second argument must be a positive integer size")
	}
	n := int(size)
	var out value.Array
	for i := 0; i < len(arr); i += n {
		end := i + n
		if end > len(arr) {
			end = len(arr)
		}
		chunk := make(value.Array, end-i)
		copy(chunk, arr[i:end])
		out = append(out, chunk)
	}
	if out == nil {
		out = value.Array{}
	}
	return out, nil
}

func biArrayContains(args []value.Value, _ path.ContextView) (value.Value, error) {
	arr, ok := value.AsArray(args[0])
	if !ok {
		return nil, fail("ArrayContains", "first argument must be an array")
	}
	for _, item := range arr {
		if value.Equal(item, args[1]) {
			return true, nil
		}
	}
	return false, nil
}

func biArrayGetItem(args []value.Value, _ path.ContextView) (value.Value, error) {
	arr, ok := value.AsArray(args[0])
	if !ok {
		return nil, fail("ArrayGetItem", "first argument must be an array")
	}
	idxF, ok := value.AsNumber(args[1])
	if !ok {
		return nil, fail("ArrayGetItem", "second argument must be an integer index")
	}
	idx := int(idxF)
	if idx < 0 {
		idx = len(arr) + idx
	}
	if idx < 0 || idx >= len(arr) {
		return nil, nil
	}
	return arr[idx], nil
}

func biArrayLength(args []value.Value, _ path.ContextView) (value.Value, error) {
	arr, ok := value.AsArray(args[0])
	if !ok {
		return nil, fail("ArrayLength", "argument must be an array")
	}
	return float64(len(arr)), nil
}

// biArrayRange implements ArrayRange as a half-open interval [start, end):
// ArrayRange(1, 5) => [1, 2, 3, 4]. See DESIGN.md for why this reading was
// chosen over an inclusive end.
func biArrayRange(args []value.Value, _ path.ContextView) (value.Value, error) {
	start, ok := value.AsNumber(args[0])
	if !ok {
		return nil, fail("ArrayRange", "start must be numeric")
	}
	end, ok := value.AsNumber(args[1])
	if !ok {
		return nil, fail("ArrayRange", "end must be numeric")
	}
	step := 1.0
	if len(args) == 3 {
		s, ok := value.AsNumber(args[2])
		if !ok || s == 0 {
			return nil, fail("ArrayRange", "step must be a non-zero number")
		}
		step = s
	}

	out := value.Array{}
	if step > 0 {
		for v := start; v < end; v += step {
			out = append(out, v)
		}
	} else {
		for v := start; v > end; v += step {
			out = append(out, v)
		}
	}
	return out, nil
}

func biArrayUnique(args []value.Value, _ path.ContextView) (value.Value, error) {
	arr, ok := value.AsArray(args[0])
	if !ok {
		return nil, fail("ArrayUnique", "argument must be an array")
	}
	out := value.Array{}
	for _, item := range arr {
		dup := false
		for _, kept := range out {
			if value.Equal(item, kept) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, item)
		}
	}
	return out, nil
}

func biArrayConcat(args []value.Value, _ path.ContextView) (value.Value, error) {
	out := value.Array{}
	for i, a := range args {
		arr, ok := value.AsArray(a)
		if !ok {
			return nil, fail("ArrayConcat", "argument %d is not an array", i)
		}
		out = append(out, arr...)
	}
	return out, nil
}

func numericOrZero(v value.Value) float64 {
	n, ok := value.AsNumber(v)
	if !ok {
		return 0
	}
	return n
}

func biMathAdd(args []value.Value, _ path.ContextView) (value.Value, error) {
	return numericOrZero(args[0]) + numericOrZero(args[1]), nil
}

func biMathSubtract(args []value.Value, _ path.ContextView) (value.Value, error) {
	return numericOrZero(args[0]) - numericOrZero(args[1]), nil
}

func biMathMultiply(args []value.Value, _ path.ContextView) (value.Value, error) {
	return numericOrZero(args[0]) * numericOrZero(args[1]), nil
}

func biMathRandom(_ []value.Value, _ path.ContextView) (value.Value, error) {
	return rand.Float64(), nil
}

func biHash(args []value.Value, _ path.ContextView) (value.Value, error) {
	data, ok := value.AsString(args[0])
	if !ok {
		return nil, fail("Hash", "first argument must be a string")
	}
	algo, ok := value.AsString(args[1])
	if !ok {
		return nil, fail("Hash", "second argument must be an algorithm name")
	}
	var h hash.Hash
	switch strings.ToUpper(algo) {
	case "MD5":
		h = md5.New()
	case "SHA-1", "SHA1":
		h = sha1.New()
	case "SHA-256", "SHA256":
		h = sha256.New()
	case "SHA-384", "SHA384":
		h = sha512.New384()
	case "SHA-512", "SHA512":
		h = sha512.New()
	default:
		return nil, fail("Hash", "unsupported algorithm %q", algo)
	}
	h.Write([]byte(data))
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func biBase64Encode(args []value.Value, _ path.ContextView) (value.Value, error) {
	s, ok := value.AsString(args[0])
	if !ok {
		return nil, fail("Base64Encode", "argument must be a string")
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func biBase64Decode(args []value.Value, _ path.ContextView) (value.Value, error) {
	s, ok := value.AsString(args[0])
	if !ok {
		return nil, fail("Base64Decode", "argument must be a string")
	}
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fail("Base64Decode", "invalid base64: %v", err)
	}
	return string(out), nil
}

func biUUID(_ []value.Value, _ path.ContextView) (value.Value, error) {
	return uuid.NewString(), nil
}

// biTokenCount approximates token count as character-count / 4, rounded up.
func biTokenCount(args []value.Value, _ path.ContextView) (value.Value, error) {
	s, ok := value.AsString(args[0])
	if !ok {
		return nil, fail("TokenCount", "argument must be a string")
	}
	return float64((len(s) + 3) / 4), nil
}

func biTruncate(args []value.Value, _ path.ContextView) (value.Value, error) {
	s, ok := value.AsString(args[0])
	if !ok {
		return nil, fail("Truncate", "first argument must be a string")
	}
	maxTokensF, ok := value.AsNumber(args[1])
	if !ok || maxTokensF < 0 {
		return nil, fail("Truncate", "second argument must be a non-negative maxTokens")
	}
	maxChars := int(maxTokensF) * 4
	if len(s) <= maxChars {
		return s, nil
	}
	return s[:maxChars] + "...", nil
}

// biMerge deep-merges mappings left to right: on a mapping/mapping
// conflict it recurses; any other conflict (scalar vs scalar, scalar vs
// mapping) the right-hand value wins outright. See DESIGN.md for why this
// reading was chosen over array-concatenating merge.
func biMerge(args []value.Value, _ path.ContextView) (value.Value, error) {
	out := value.Map{}
	for i, a := range args {
		m, ok := value.AsMap(a)
		if !ok {
			return nil, fail("Merge", "argument %d is not a mapping", i)
		}
		out = mergeInto(out, m)
	}
	return out, nil
}

func mergeInto(dst, src value.Map) value.Map {
	out := make(value.Map, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		existing, exists := out[k]
		existingMap, existingIsMap := value.AsMap(existing)
		incomingMap, incomingIsMap := value.AsMap(v)
		if exists && existingIsMap && incomingIsMap {
			out[k] = mergeInto(existingMap, incomingMap)
			continue
		}
		out[k] = v
	}
	return out
}

func keyList(fn string, args []value.Value) ([]string, error) {
	keys := make([]string, len(args))
	for i, a := range args {
		s, ok := value.AsString(a)
		if !ok {
			return nil, fail(fn, "key argument %d is not a string", i+1)
		}
		keys[i] = s
	}
	return keys, nil
}

func biPick(args []value.Value, _ path.ContextView) (value.Value, error) {
	m, ok := value.AsMap(args[0])
	if !ok {
		return nil, fail("Pick", "first argument must be a mapping")
	}
	keys, err := keyList("Pick", args[1:])
	if err != nil {
		return nil, err
	}
	out := value.Map{}
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func biOmit(args []value.Value, _ path.ContextView) (value.Value, error) {
	m, ok := value.AsMap(args[0])
	if !ok {
		return nil, fail("Omit", "first argument must be a mapping")
	}
	drop, err := keyList("Omit", args[1:])
	if err != nil {
		return nil, err
	}
	dropSet := make(map[string]bool, len(drop))
	for _, k := range drop {
		dropSet[k] = true
	}
	out := value.Map{}
	for k, v := range m {
		if !dropSet[k] {
			out[k] = v
		}
	}
	return out, nil
}

// biCurrentCost and biCurrentTokens read the running cost/token
// accumulators off the context view. The interpreter's context-object
// builder (workflow.ExecutionContext.View) is responsible for populating
// the "_cost"/"_tokens" keys on every $$ view it hands to the path
// engine; that keeps this package's only coupling to the execution
// context a map-key convention, not an import of the workflow package.
func biCurrentCost(_ []value.Value, ctx path.ContextView) (value.Value, error) {
	if ctx == nil {
		return 0.0, nil
	}
	return numericOrZero(ctx["_cost"]), nil
}

func biCurrentTokens(_ []value.Value, ctx path.ContextView) (value.Value, error) {
	if ctx == nil {
		return 0.0, nil
	}
	return numericOrZero(ctx["_tokens"]), nil
}
