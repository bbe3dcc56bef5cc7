package typedxml

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Outcome tells which path Decode took for the value it returned.
type Outcome int

const (
	// Decoded means the value was converted to native types.
	Decoded Outcome = iota
	// RawFallback means the input could not be converted and was returned
	// unchanged.
	RawFallback
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case RawFallback:
		return "raw-fallback"
	default:
		return "unknown"
	}
}

// Result is the output of Decode.
//
// Value holds native values: string, bool, int64, float64, time.Time,
// map[string]any for objects and []any for arrays. When Outcome is
// RawFallback, Value is the input passed to Decode. Degraded counts nested
// subtrees that fell back to their raw form while the rest decoded.
type Result struct {
	Value    any
	Outcome  Outcome
	Degraded int
}

// Type hints understood by Decode.
const (
	hintArray    = "array"
	hintDatetime = "datetime"
	hintInteger  = "integer"
	hintBoolean  = "boolean"
	hintFloat    = "float"
	hintDecimal  = "decimal"
)

// Decode converts a graph produced by Parse into native values.
//
// Objects are walked field by field in document order. A field named
// "type" holding "array" emits nothing; instead the next field is decoded
// as an array and becomes the value of the whole object. A single element
// in that position is wrapped into a one-element array.
//
// Decode never fails. A subtree that cannot be converted, for instance an
// integer hint on non-numeric text, is kept in its raw form and counted in
// Result.Degraded; if the top-level value itself cannot be converted the
// result is a RawFallback.
func Decode(v any) Result {
	d := &decoder{}

	var (
		value any
		err   error
	)
	switch t := v.(type) {
	case *Object:
		if isNil(t) {
			value = ""
			break
		}
		value, err = d.object(t)
	case []any:
		value = d.members(t)
	case string:
		value = t
	default:
		err = fmt.Errorf("unsupported value %T", v)
	}

	if err != nil {
		return Result{Value: v, Outcome: RawFallback, Degraded: d.degraded}
	}
	return Result{Value: value, Outcome: Decoded, Degraded: d.degraded}
}

// Unmarshal parses and decodes an XML document.
func Unmarshal(data []byte) (Result, error) {
	parsed, err := ParseBytes(data)
	if err != nil {
		return Result{}, err
	}
	return Decode(parsed), nil
}

type decoder struct {
	degraded int
}

func (d *decoder) object(obj *Object) (any, error) {
	fields := make(map[string]any, obj.Len())

	var (
		pending bool
		list    []any
		isList  bool
	)

	for _, key := range obj.Keys() {
		item, _ := obj.Get(key)

		if isList {
			// The array replaces the object; nothing after it has a place
			// to go.
			continue
		}

		if pending {
			pending = false
			list = d.members(item)
			isList = true
			continue
		}

		switch t := item.(type) {
		case string:
			if key == "type" && t == hintArray {
				pending = true
				continue
			}
			fields[key] = t
		case *Object:
			v, err := d.element(t)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			fields[key] = v
		case []any:
			fields[key] = d.members(t)
		default:
			return nil, fmt.Errorf("field %q: unsupported value %T", key, item)
		}
	}

	switch {
	case isList:
		return list, nil
	case pending:
		// An array hint with no members: <accounts type="array"></accounts>
		return []any{}, nil
	default:
		return fields, nil
	}
}

// element decodes a single child element. Typed scalars that fail to
// parse are returned as errors so the enclosing object falls back; nested
// objects fall back on their own.
func (d *decoder) element(obj *Object) (any, error) {
	if isNil(obj) {
		return "", nil
	}

	hint, _ := stringField(obj, "type")
	if isScalarHint(hint) {
		text, _ := stringField(obj, TextKey)
		if text == "" {
			return "", nil
		}
		return scalar(hint, text)
	}

	return d.subtree(obj), nil
}

func (d *decoder) subtree(obj *Object) any {
	v, err := d.object(obj)
	if err != nil {
		d.degraded++
		return obj
	}
	return v
}

// members decodes the value that follows an array hint. A lone value is
// wrapped so single-item collections still come back as arrays.
func (d *decoder) members(item any) []any {
	list, ok := item.([]any)
	if !ok {
		return []any{d.member(item)}
	}

	out := make([]any, 0, len(list))
	for _, m := range list {
		out = append(out, d.member(m))
	}
	return out
}

func (d *decoder) member(m any) any {
	switch t := m.(type) {
	case *Object:
		v, err := d.element(t)
		if err != nil {
			d.degraded++
			return t
		}
		return v
	case []any:
		return d.members(t)
	default:
		return m
	}
}

// isNil reports whether the element carries the nil="nil" marker.
func isNil(obj *Object) bool {
	v, ok := stringField(obj, "nil")
	return ok && v == "nil"
}

func isScalarHint(hint string) bool {
	switch hint {
	case hintDatetime, hintInteger, hintBoolean, hintFloat, hintDecimal:
		return true
	default:
		return false
	}
}

func scalar(hint, text string) (any, error) {
	switch hint {
	case hintDatetime:
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("invalid datetime %q: %w", text, err)
		}
		return t, nil
	case hintInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", text, err)
		}
		return n, nil
	case hintBoolean:
		return text == "true", nil
	case hintFloat, hintDecimal:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", hint, text, err)
		}
		return f, nil
	default:
		return text, nil
	}
}

func stringField(obj *Object, key string) (string, bool) {
	v, ok := obj.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
