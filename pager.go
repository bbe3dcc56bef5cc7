package recurly

import (
	"context"
	"errors"
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

// Done is returned by Pager.Next when the collection is exhausted.
var Done = errors.New("recurly: no more items")

const (
	// pageSize is sent as per_page on every page request. 200 is the
	// largest page the API serves.
	pageSize = 200

	recordsHeader = "X-Records"
)

// Filter holds query parameters narrowing a collection, such as
// {"state": "active"}.
type Filter map[string]string

func (f Filter) encode() string {
	if len(f) == 0 {
		return ""
	}
	q := make(url.Values, len(f))
	for k, v := range f {
		q.Set(k, v)
	}
	return q.Encode()
}

// appendTo adds the filter to path as a query string, after any query the
// path already carries.
func (f Filter) appendTo(path string) string {
	q := f.encode()
	if q == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q
}

// Pager walks a paginated collection one record at a time, following the
// Link rel="next" header between pages.
//
// The total record count is read from the X-Records header of the first
// page and is authoritative from then on. Iteration ends when that many
// records were returned, when a page has no next link and its records are
// used up, or when a page comes back empty, whichever happens first.
//
// A Pager is single use and must not be advanced from several goroutines
// at once. Independent pagers may run concurrently.
type Pager[T any] struct {
	transport *api.Transport
	logger    *slog.Logger
	headers   http.Header
	wrap      func(record any) *T

	next    string
	started bool
	buffer  []*T
	total   int
	emitted int
	err     error
}

func newPager[T any, PT record[T]](s *service, path string, filter Filter, opts []RequestOption) *Pager[T] {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	uri := filter.appendTo(path)

	logger := s.logger
	return &Pager[T]{
		transport: s.transport,
		logger:    logger,
		headers:   reqCfg.headers,
		wrap: func(rec any) *T {
			return inflate[T, PT](rec, logger)
		},
		next:  uri,
		total: -1,
	}
}

// Next returns the next record, fetching a new page when the current one
// is used up. It returns Done once the collection is exhausted. After a
// failure every later call returns the same error.
func (p *Pager[T]) Next(ctx context.Context) (*T, error) {
	if p.err != nil {
		return nil, p.err
	}

	for {
		if p.total >= 0 && p.emitted >= p.total {
			return nil, p.finish(Done)
		}

		if len(p.buffer) > 0 {
			item := p.buffer[0]
			p.buffer[0] = nil
			p.buffer = p.buffer[1:]
			p.emitted++
			return item, nil
		}

		if p.started && p.next == "" {
			return nil, p.finish(Done)
		}

		if err := p.fetch(ctx); err != nil {
			return nil, p.finish(err)
		}
	}
}

// Total returns the declared number of records, or -1 before the first
// page has been fetched or when the server did not declare one.
func (p *Pager[T]) Total() int {
	return p.total
}

// Emitted returns how many records Next has returned so far.
func (p *Pager[T]) Emitted() int {
	return p.emitted
}

// Err returns the error that ended iteration, or nil if it ended normally
// or has not ended.
func (p *Pager[T]) Err() error {
	if errors.Is(p.err, Done) {
		return nil
	}
	return p.err
}

// All returns an iterator over the remaining records. Iteration stops at
// the first error, which is yielded with a nil record.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			item, err := p.Next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (p *Pager[T]) finish(err error) error {
	p.err = err
	p.buffer = nil
	return err
}

// fetch requests the page at p.next and buffers its records. The next
// link is stored before any record is handed out.
func (p *Pager[T]) fetch(ctx context.Context) error {
	p.logger.DebugContext(ctx, "fetching page",
		"uri", p.next, "emitted", p.emitted, "total", p.total)

	resp, err := p.transport.Do(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    p.next,
		Query:   url.Values{"per_page": {strconv.Itoa(pageSize)}},
		Headers: p.headers,
	})
	if err != nil {
		return err
	}
	if err := checkResponse(resp, http.StatusOK); err != nil {
		return err
	}

	p.started = true

	if p.total < 0 {
		p.total = readTotal(resp.Headers, p.logger)
	}

	p.next = ""
	if link := nextLink(resp.Headers.Values("Link")); link != "" {
		u, err := resp.URL.Parse(link)
		if err != nil {
			return fmt.Errorf("invalid next link %q: %w", link, err)
		}
		p.next = u.String()
	}

	records, err := decodeRecords(resp.Body, p.logger)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		p.next = ""
		return nil
	}

	for _, rec := range records {
		p.buffer = append(p.buffer, p.wrap(rec))
	}
	return nil
}

func readTotal(headers http.Header, logger *slog.Logger) int {
	value := headers.Get(recordsHeader)
	if value == "" {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		logger.Warn("ignoring invalid record count", "header", recordsHeader, "value", value)
		return -1
	}
	return n
}

// decodeRecords returns the records of a collection document such as
// <accounts type="array"><account>...</account></accounts>.
func decodeRecords(body []byte, logger *slog.Logger) ([]any, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	result, err := typedxml.Unmarshal(body)
	if err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	logOutcome(logger, result)

	value := result.Value
	if result.Outcome == typedxml.RawFallback {
		value = typedxml.Plain(value)
	}

	switch v := value.(type) {
	case []any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
	case map[string]any:
		// Collections without an array hint: one key holding the records.
		if len(v) == 1 {
			for _, inner := range v {
				if list, ok := inner.([]any); ok {
					return list, nil
				}
				return []any{inner}, nil
			}
		}
	}
	return nil, fmt.Errorf("decoding collection: unexpected document shape %T", value)
}

// nextLink returns the rel="next" target from RFC 8288 Link header values
// such as `<https://x/v2/accounts?cursor=abc>; rel="next"`.
func nextLink(values []string) string {
	for _, value := range values {
		for value != "" {
			value = strings.TrimLeft(value, " ,")
			if !strings.HasPrefix(value, "<") {
				break
			}
			end := strings.IndexByte(value, '>')
			if end < 0 {
				break
			}
			target := value[1:end]
			value = value[end+1:]

			params := value
			if comma := strings.IndexByte(value, ','); comma >= 0 {
				params = value[:comma]
				value = value[comma:]
			} else {
				value = ""
			}

			if hasRel(params, "next") {
				return target
			}
		}
	}
	return ""
}

func hasRel(params, rel string) bool {
	for param := range strings.SplitSeq(params, ";") {
		name, val, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "rel") {
			continue
		}
		for r := range strings.FieldsSeq(strings.Trim(strings.TrimSpace(val), `"`)) {
			if strings.EqualFold(r, rel) {
				return true
			}
		}
	}
	return false
}
