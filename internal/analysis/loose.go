package analysis

import (
	"encoding/json"
	"math"
)

// Loose is a read-only view over an untyped JSON tree as produced by
// encoding/json. Every accessor is total: missing keys and wrong types
// resolve to the zero view rather than failing.
type Loose struct {
	v any
}

// NewLoose wraps a decoded JSON value.
func NewLoose(v any) Loose {
	return Loose{v: v}
}

// Get returns the child at key, or the zero view when this is not an object.
func (l Loose) Get(key string) Loose {
	if m, ok := l.v.(map[string]any); ok {
		return Loose{v: m[key]}
	}
	return Loose{}
}

// IsObject reports whether the value is a JSON object.
func (l Loose) IsObject() bool {
	_, ok := l.v.(map[string]any)
	return ok
}

// Items returns the elements of a JSON array, or nil.
func (l Loose) Items() []Loose {
	arr, ok := l.v.([]any)
	if !ok {
		return nil
	}
	items := make([]Loose, len(arr))
	for i, v := range arr {
		items[i] = Loose{v: v}
	}
	return items
}

// Number returns the numeric value, if any. NaN is not a number here.
func (l Loose) Number() (float64, bool) {
	var f float64
	switch n := l.v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// String returns the value when it is a JSON string.
func (l Loose) String() (string, bool) {
	s, ok := l.v.(string)
	return s, ok
}

// Truthy mirrors JavaScript truthiness over JSON values.
func (l Loose) Truthy() bool {
	switch v := l.v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case map[string]any, []any:
		return true
	}
	if f, ok := l.Number(); ok {
		return f != 0
	}
	return false
}

// IsFalse reports whether the value is exactly the JSON literal false.
func (l Loose) IsFalse() bool {
	b, ok := l.v.(bool)
	return ok && !b
}

// Strings returns the string elements of an array, dropping anything else.
// The result is never nil.
func (l Loose) Strings() []string {
	out := []string{}
	for _, item := range l.Items() {
		if s, ok := item.String(); ok {
			out = append(out, s)
		}
	}
	return out
}
