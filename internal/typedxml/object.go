package typedxml

// Object is a parsed XML element whose attributes and child elements have
// been merged into a single set of named fields. Field order follows the
// document: attributes first, then child elements as they appear.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Len returns the number of distinct fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the field names in document order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Add stores v under key. A key seen more than once collects its values
// into a []any in document order, keeping the position of the first
// occurrence.
func (o *Object) Add(key string, v any) {
	existing, ok := o.values[key]
	if !ok {
		o.keys = append(o.keys, key)
		o.values[key] = v
		return
	}
	// Element values are only ever strings or objects, so a list here
	// always comes from an earlier repetition.
	if list, isList := existing.([]any); isList {
		o.values[key] = append(list, v)
		return
	}
	o.values[key] = []any{existing, v}
}
