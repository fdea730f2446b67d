package statekit

import "reflect"

// DeepEqual reports whether two state values are structurally equal.
//
// Keyed containers (map[string]any) are compared by key-set membership and
// recursive per-key equality; key order is irrelevant. Ordered sequences
// ([]any) are compared index-wise; a length mismatch is unequal. Numeric
// leaves compare by value across integer and float kinds, so a state that
// has been through a JSON round trip (where every number becomes float64)
// still compares equal to the original.
//
// DeepEqual does not detect cycles; a cyclic structure recurses without
// bound. State values are expected to be acyclic plain data.
func DeepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			return false
		}
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok {
				return false
			}
			if !DeepEqual(v, w) {
				return false
			}
		}
		return true

	case []any:
		bv, ok := b.([]any)
		if !ok {
			return false
		}
		if len(av) != len(bv) {
			return false
		}
		for i, v := range av {
			if !DeepEqual(v, bv[i]) {
				return false
			}
		}
		return true

	case string:
		s, ok := b.(string)
		return ok && av == s

	case bool:
		t, ok := b.(bool)
		return ok && av == t
	}

	// A container on one side only is a kind mismatch.
	if isContainer(b) {
		return false
	}

	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			return fa == fb
		}
		return false
	}

	// Remaining leaves (time.Time, custom comparables, typed slices that
	// escaped normalization) fall back to reflective equality.
	return reflect.DeepEqual(a, b)
}

// isContainer reports whether v is one of the plain structural container
// kinds the store understands.
func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// asFloat converts any numeric leaf to float64 for cross-kind comparison.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
