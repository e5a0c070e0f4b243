// Package value defines the dynamic JSON-like value model shared by the
// path engine, the intrinsic function library, and every state
// implementation.
//
// A Value is one of: nil, bool, float64, string, []Value, or
// map[string]Value. This mirrors what encoding/json already produces from
// json.Unmarshal(data, &any{}), so workflows can be loaded directly from
// JSON without an intermediate conversion pass.
package value

import (
	"fmt"
	"sort"
)

// Value is any JSON-like value: nil, bool, float64, string, []Value, or
// map[string]Value. Numbers are always float64 — JSON does not
// distinguish integers from floats, and encoding/json round-trips a
// whole-valued float64 (5.0) back to "5" without a fractional part, so no
// separate integer representation is needed.
type Value = any

// Map is a convenience alias for the object case of Value.
type Map = map[string]Value

// Array is a convenience alias for the array case of Value.
type Array = []Value

// AsMap returns v as a Map and true if v is a mapping, else nil and false.
func AsMap(v Value) (Map, bool) {
	m, ok := v.(Map)
	return m, ok
}

// AsArray returns v as an Array and true if v is a sequence, else nil and false.
func AsArray(v Value) (Array, bool) {
	a, ok := v.(Array)
	return a, ok
}

// AsString returns v as a string and true if v is a string, else "" and false.
func AsString(v Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// AsNumber returns v as a float64 and true if v is numeric, else 0 and false.
func AsNumber(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// AsBool returns v as a bool and true if v is a boolean, else false and false.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// IsNull reports whether v is the JSON null value (a nil interface).
func IsNull(v Value) bool {
	return v == nil
}

// DeepCopy returns a structurally independent copy of v. States and the
// path engine must never let two in-flight executions alias the same
// underlying map or slice — a write by one must not be observable by
// the other.
func DeepCopy(v Value) Value {
	switch t := v.(type) {
	case Map:
		cp := make(Map, len(t))
		for k, val := range t {
			cp[k] = DeepCopy(val)
		}
		return cp
	case Array:
		cp := make(Array, len(t))
		for i, val := range t {
			cp[i] = DeepCopy(val)
		}
		return cp
	default:
		return v
	}
}

// Equal reports whether a and b are structurally identical JSON values.
// Used by the ArrayContains/ArrayUnique intrinsics and by tests.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Map:
		bv, ok := b.(Map)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, exists := bv[k]
			if !exists || !Equal(v, bval) {
				return false
			}
		}
		return true
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		an, aIsNum := AsNumber(a)
		bn, bIsNum := AsNumber(b)
		if aIsNum && bIsNum {
			return an == bn
		}
		return a == b
	}
}

// TypeName returns a short, stable name for v's dynamic kind, used in
// error messages and the Choice state's Is* predicates.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	case Array:
		return "array"
	case Map:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// SortedKeys returns a mapping's keys in ascending order. The data model
// preserves insertion order only for trace determinism (§3); ordinary
// reads and writes through the path engine are order-independent, so
// sorting keys is only needed where a stable iteration is required.
func SortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
