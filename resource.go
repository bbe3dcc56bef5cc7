package recurly

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/tphakala/go-recurly/internal/typedxml"
)

// anchorKey is the element the API uses for named action links:
// <a name="cancel" href="https://.../cancel" method="put"/>.
const anchorKey = "a"

// Action is a named operation link advertised on a resource.
type Action struct {
	Name   string
	Href   string
	Method string
}

// Resource holds what every API record carries besides its own fields.
type Resource struct {
	// Href is the canonical URL of the record.
	Href string `mapstructure:"href"`

	// Links maps related resource names to their URLs, for example
	// "account" or "invoices". Only elements that carried nothing but an
	// href end up here.
	Links map[string]string `mapstructure:"-"`

	// Actions maps action names such as "cancel" to their links.
	Actions map[string]Action `mapstructure:"-"`

	// Extra holds fields the typed struct has no place for.
	Extra map[string]any `mapstructure:"-"`
}

func (r *Resource) resource() *Resource { return r }

// Link returns the URL of a related resource.
func (r *Resource) Link(name string) (string, bool) {
	href, ok := r.Links[name]
	return href, ok
}

// ActionLink returns a named action link.
func (r *Resource) ActionLink(name string) (Action, bool) {
	a, ok := r.Actions[name]
	return a, ok
}

// actionHref returns the href of the named action, or fallback when the
// record does not advertise it.
func (r *Resource) actionHref(name, fallback string) string {
	if a, ok := r.Actions[name]; ok && a.Href != "" {
		return a.Href
	}
	return fallback
}

// record is implemented by pointers to model types.
type record[T any] interface {
	*T
	resource() *Resource
	key() string
}

// inflate builds a typed record from a decoded API object. Related
// resource links and action anchors are moved into Resource; everything
// else is decoded onto T. Fields that fail to convert are logged and left
// zero; inflate always returns a record.
func inflate[T any, PT record[T]](raw any, logger *slog.Logger) *T {
	out := new(T)
	base := PT(out).resource()

	fields, ok := typedxml.Plain(raw).(map[string]any)
	if !ok {
		if s, isString := raw.(string); !isString || strings.TrimSpace(s) != "" {
			logger.Warn("record is not an object", "type", fmt.Sprintf("%T", raw))
		}
		return out
	}

	base.Actions = anchors(fields[anchorKey])
	delete(fields, anchorKey)

	fields, links := typedxml.SplitLinks(fields)
	if len(links) > 0 {
		base.Links = links
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textNodeHook,
			nilMarkerHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           out,
	})
	if err != nil {
		logger.Error("creating record decoder", "error", err)
		return out
	}

	if err := dec.Decode(fields); err != nil {
		logger.Warn("some record fields could not be decoded",
			"type", fmt.Sprintf("%T", out), "error", err)
	}

	for _, key := range md.Unused {
		if strings.Contains(key, ".") || strings.Contains(key, "[") {
			continue
		}
		if v, ok := fields[key]; ok {
			if base.Extra == nil {
				base.Extra = make(map[string]any)
			}
			base.Extra[key] = v
		}
	}

	return out
}

func anchors(v any) map[string]Action {
	var items []any
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		items = t
	default:
		items = []any{t}
	}

	out := make(map[string]Action, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a := Action{
			Name:   text(m["name"]),
			Href:   text(m[typedxml.HrefKey]),
			Method: strings.ToUpper(text(m["method"])),
		}
		if a.Name != "" {
			out[a.Name] = a
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// nilMarkerHook turns the empty string a nil="nil" element decodes to into
// the zero value of non-string targets.
func nilMarkerHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() == reflect.String {
		return data, nil
	}
	if s, ok := data.(string); ok && s == "" {
		return reflect.Zero(to).Interface(), nil
	}
	return data, nil
}

// textNodeHook unwraps elements that kept their attributes, such as
// <amount currency="USD">10</amount>, when the target is a scalar.
func textNodeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Map {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Interface:
		if to != reflect.TypeOf(time.Time{}) {
			return data, nil
		}
	}
	if m, ok := data.(map[string]any); ok {
		if v, ok := m[typedxml.TextKey]; ok {
			return v, nil
		}
	}
	return data, nil
}

// lastSegment returns the final path element of a resource URL, which is
// the identifier of the resource it points at.
func lastSegment(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	seg, err := url.PathUnescape(path.Base(u.Path))
	if err != nil || seg == "." || seg == "/" {
		return ""
	}
	return seg
}

// logOutcome reports documents that were only partly decoded.
func logOutcome(logger *slog.Logger, result typedxml.Result) {
	if result.Outcome == typedxml.RawFallback {
		logger.Warn("response could not be decoded, using raw structure")
		return
	}
	if result.Degraded > 0 {
		logger.Warn("response partly decoded", "degraded_subtrees", result.Degraded)
	}
}
