// Package api provides low-level HTTP transport for Recurly API calls.
package api

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/go-recurly/internal/auth"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultAPIVersion is sent in the X-Api-Version header.
	DefaultAPIVersion = "2.17"

	contentTypeXML = "application/xml; charset=utf-8"
	acceptXML      = "application/xml"
)

// Transport handles HTTP communication with the Recurly API.
type Transport struct {
	BaseURL     *url.URL
	HTTPClient  *http.Client
	Credentials *auth.Credentials
	UserAgent   string
	APIVersion  string

	// Limiter, when set, is waited on before every request.
	Limiter *rate.Limiter
	// Metrics, when set, records request counts and latencies.
	Metrics *Metrics
	Logger  *slog.Logger
}

// NewTransport creates a Transport with the given configuration.
func NewTransport(baseURL string, creds *auth.Credentials, httpClient *http.Client) (*Transport, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials must be provided")
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("invalid base URL: %q is not absolute", baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
		}
	}

	return &Transport{
		BaseURL:     u,
		HTTPClient:  httpClient,
		Credentials: creds,
		UserAgent:   "go-recurly/1.0",
		APIVersion:  DefaultAPIVersion,
		Logger:      slog.New(slog.DiscardHandler),
	}, nil
}

// Request represents an API request.
type Request struct {
	Method string
	// Path is either relative to the base URL or an absolute URL, such as
	// an href or a pagination link returned by the API.
	Path string
	// Query values are merged over any query already present in Path.
	Query url.Values
	// Body is sent as XML. A []byte is sent verbatim; any other value is
	// passed to xml.Marshal.
	Body    any
	Headers http.Header
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	// URL is the URL that was requested, used to resolve relative links.
	URL *url.URL
}

// Do executes an API request and returns the raw response.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if t.Limiter != nil {
		if err := t.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	start := time.Now()
	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		t.Metrics.observe(req.Method, 0, time.Since(start))
		t.logger().DebugContext(ctx, "request failed",
			"method", req.Method, "url", httpReq.URL.String(), "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Limit response body size to prevent memory exhaustion
	limitedReader := io.LimitReader(httpResp.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	elapsed := time.Since(start)
	t.Metrics.observe(req.Method, httpResp.StatusCode, elapsed)
	t.logger().DebugContext(ctx, "request completed",
		"method", req.Method,
		"url", httpReq.URL.String(),
		"status", httpResp.StatusCode,
		"duration", elapsed,
		"bytes", len(body))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
		URL:        httpReq.URL,
	}, nil
}

// ResolveURL returns the absolute URL for path. Absolute URLs are used as
// they are; anything else is joined onto the base URL.
func (t *Transport) ResolveURL(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}

	u := t.BaseURL.JoinPath(ref.EscapedPath())
	u.RawQuery = ref.RawQuery
	return u, nil
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u, err := t.ResolveURL(req.Path)
	if err != nil {
		return nil, err
	}

	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := marshalBody(req.Body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Set default headers
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", contentTypeXML)
	}
	httpReq.Header.Set("Accept", acceptXML)
	httpReq.Header.Set("User-Agent", t.UserAgent)
	if t.APIVersion != "" {
		httpReq.Header.Set("X-Api-Version", t.APIVersion)
	}

	// Apply authentication
	t.Credentials.Apply(httpReq)

	// Apply custom headers
	maps.Copy(httpReq.Header, req.Headers)

	return httpReq, nil
}

func marshalBody(body any) ([]byte, error) {
	if raw, ok := body.([]byte); ok {
		return raw, nil
	}

	data, err := xml.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.Logger
}
