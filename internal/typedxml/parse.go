// Package typedxml turns XML payloads into native Go values.
//
// Decoding happens in two steps. Parse builds a generic graph in which
// every element's attributes and children are merged into one ordered
// Object, with element text kept under TextKey. Decode then walks that
// graph and applies the type hints carried by the payload:
//
//	<count type="integer">3</count>         -> int64(3)
//	<active type="boolean">true</active>    -> true
//	<created_at type="datetime">...</...>   -> time.Time
//	<closed_at nil="nil"></closed_at>       -> ""
//	<accounts type="array">...</accounts>   -> []any
package typedxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TextKey is the field under which element text is stored when the
// element also has attributes or children.
const TextKey = "#"

// ErrEmptyDocument is returned by Parse when the input holds no element.
var ErrEmptyDocument = errors.New("typedxml: empty document")

// SyntaxError reports XML that could not be tokenized.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("typedxml: malformed XML: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

type frame struct {
	name string
	obj  *Object
	text strings.Builder
}

// Parse reads one XML document and returns the content of its root
// element: a string for a text-only root, otherwise an *Object. The root
// element itself is not kept as a wrapper.
func Parse(r io.Reader) (any, error) {
	dec := xml.NewDecoder(r)

	var (
		stack []*frame
		root  any
		done  bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SyntaxError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if done {
				return nil, &SyntaxError{Err: fmt.Errorf("unexpected element <%s> after document root", t.Name.Local)}
			}
			f := &frame{name: t.Name.Local, obj: NewObject()}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
					continue
				}
				f.obj.Add(attr.Name.Local, attr.Value)
			}
			stack = append(stack, f)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			value := f.value()
			if len(stack) == 0 {
				root = value
				done = true
				continue
			}
			stack[len(stack)-1].obj.Add(f.name, value)
		}
	}

	if !done {
		if len(stack) > 0 {
			return nil, &SyntaxError{Err: io.ErrUnexpectedEOF}
		}
		return nil, ErrEmptyDocument
	}

	return root, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) (any, error) {
	return Parse(bytes.NewReader(data))
}

// value collapses a finished element. Whitespace-only text is dropped.
func (f *frame) value() any {
	text := f.text.String()
	if strings.TrimSpace(text) == "" {
		text = ""
	}

	if f.obj.Len() == 0 {
		return text
	}
	if text != "" {
		f.obj.Add(TextKey, text)
	}
	return f.obj
}
