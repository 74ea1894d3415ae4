package docstore

import (
	"reflect"
	"strings"
)

// lookupPath resolves a dotted field path against document data.
func lookupPath(data map[string]any, field string) (any, bool) {
	parts := strings.Split(field, ".")
	var current any = data
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// equalValue compares a stored value with a query value, tolerating the
// numeric widening JSON decoding introduces (ints become float64).
func equalValue(got, want any) bool {
	if gf, ok := asFloat(got); ok {
		if wf, ok := asFloat(want); ok {
			return gf == wf
		}
		return false
	}
	return reflect.DeepEqual(got, want)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// nestedValue builds the minimal document containing value at the dotted
// field path, for jsonb containment queries.
func nestedValue(field string, value any) map[string]any {
	parts := strings.Split(field, ".")
	doc := map[string]any{parts[len(parts)-1]: value}
	for i := len(parts) - 2; i >= 0; i-- {
		doc = map[string]any{parts[i]: doc}
	}
	return doc
}
