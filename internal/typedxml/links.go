package typedxml

// HrefKey is the attribute that carries a resource URL.
const HrefKey = "href"

// SplitLinks separates resource references from ordinary fields.
//
// A resource reference is an object whose only field is href, as produced
// by <account href="https://.../accounts/abc"/>. Those are returned in
// links keyed by field name; every other field is returned in fields. The
// input map is not modified.
func SplitLinks(record map[string]any) (fields map[string]any, links map[string]string) {
	fields = make(map[string]any, len(record))
	links = make(map[string]string)

	for key, value := range record {
		if href, ok := Reference(value); ok {
			links[key] = href
			continue
		}
		fields[key] = value
	}

	return fields, links
}

// Reference reports whether v is a resource reference and returns its URL.
func Reference(v any) (string, bool) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) != 1 {
			return "", false
		}
		href, ok := t[HrefKey].(string)
		return href, ok
	case *Object:
		if t.Len() != 1 {
			return "", false
		}
		return stringField(t, HrefKey)
	default:
		return "", false
	}
}

// Plain converts a raw graph into plain maps and slices, leaving scalar
// leaves untouched. It is used on values that came back from Decode as a
// RawFallback so they can still be inspected as maps.
func Plain(v any) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, t.Len())
		for _, key := range t.Keys() {
			item, _ := t.Get(key)
			m[key] = Plain(item)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	case map[string]any:
		m := make(map[string]any, len(t))
		for key, item := range t {
			m[key] = Plain(item)
		}
		return m
	default:
		return v
	}
}
