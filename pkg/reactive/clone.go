package reactive

// Clone deep-copies a plain structural value. Keyed records and ordered
// sequences are copied recursively; leaves (including unwrappable values)
// are copied by assignment. Clone does not detect cycles.
func Clone(v any) any {
	switch c := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(c))
		for k, e := range c {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(c))
		for i, e := range c {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}
