package recurly

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tphakala/go-recurly/internal/api"
	"github.com/tphakala/go-recurly/internal/typedxml"
)

// service holds what every resource service shares.
type service struct {
	transport *api.Transport
	logger    *slog.Logger
}

type call struct {
	method string
	path   string
	query  url.Values
	body   any
	valid  []int
}

func (s *service) do(ctx context.Context, c call, opts []RequestOption) (*api.Response, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := s.transport.Do(ctx, &api.Request{
		Method:  c.method,
		Path:    c.path,
		Query:   c.query,
		Body:    c.body,
		Headers: reqCfg.headers,
	})
	if err != nil {
		return nil, err
	}

	if err := checkResponse(resp, c.valid...); err != nil {
		return nil, err
	}
	return resp, nil
}

// fetch performs c and inflates the single record in the response.
func fetch[T any, PT record[T]](ctx context.Context, s *service, c call, opts []RequestOption) (*T, error) {
	resp, err := s.do(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T, PT](resp.Body, s.logger)
}

func decodeRecord[T any, PT record[T]](body []byte, logger *slog.Logger) (*T, error) {
	result, err := typedxml.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	logOutcome(logger, result)
	return inflate[T, PT](result.Value, logger), nil
}

// collection provides the read operations shared by every enumerable
// resource. path is relative to the base URL.
type collection[T any, PT record[T]] struct {
	svc  *service
	path string
}

// Iterator returns a pager over the collection.
func (c collection[T, PT]) Iterator(filter Filter, opts ...RequestOption) *Pager[T] {
	return newPager[T, PT](c.svc, c.path, filter, opts)
}

// List returns an iterator over every record matching filter.
func (c collection[T, PT]) List(ctx context.Context, filter Filter, opts ...RequestOption) iter.Seq2[*T, error] {
	return c.Iterator(filter, opts...).All(ctx)
}

// All drains the collection into a map keyed by each record's natural
// identifier.
func (c collection[T, PT]) All(ctx context.Context, filter Filter, opts ...RequestOption) (map[string]*T, error) {
	return Index(c.List(ctx, filter, opts...), func(item *T) string {
		return PT(item).key()
	})
}

// Count returns the number of records matching filter, as declared by the
// server, without fetching them.
func (c collection[T, PT]) Count(ctx context.Context, filter Filter, opts ...RequestOption) (int, error) {
	return countRecords(ctx, c.svc, c.path, filter, opts)
}

func countRecords(ctx context.Context, s *service, path string, filter Filter, opts []RequestOption) (int, error) {
	resp, err := s.do(ctx, call{method: http.MethodHead, path: filter.appendTo(path), valid: []int{http.StatusOK}}, opts)
	if err != nil {
		return 0, err
	}

	value := resp.Headers.Get(recordsHeader)
	if value == "" {
		return 0, fmt.Errorf("recurly: response has no %s header", recordsHeader)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("recurly: invalid %s header %q: %w", recordsHeader, value, err)
	}
	return n, nil
}

// listAt returns an iterator over the collection at href, which may be an
// absolute URL taken from a resource link.
func listAt[T any, PT record[T]](ctx context.Context, s *service, href string, opts []RequestOption) iter.Seq2[*T, error] {
	return newPager[T, PT](s, href, nil, opts).All(ctx)
}

// relatedPath returns the related collection URL advertised by r, or the
// conventional path below base.
func relatedPath(r *Resource, name, base string) string {
	if href, ok := r.Links[name]; ok && href != "" {
		return href
	}
	return base + "/" + name
}

func escape(id string) string {
	return url.PathEscape(id)
}

// requireID returns a ValidationError when id is empty.
func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError("%s cannot be empty", kind)
	}
	return nil
}
