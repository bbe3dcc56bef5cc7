package recurly

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL    string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger

	rateRequests int
	ratePer      time.Duration

	registerer prometheus.Registerer
	tracing    bool
}

// WithAPIKey sets the private API key.
func WithAPIKey(key string) ClientOption {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithBaseURL sets the Recurly API base URL, including the version path.
// It defaults to DefaultBaseURL.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithSubdomain points the client at https://<subdomain>.recurly.com/v2.
func WithSubdomain(subdomain string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = fmt.Sprintf("https://%s.recurly.com/v2", subdomain)
	}
}

// WithAPIVersion overrides the X-Api-Version header.
func WithAPIVersion(version string) ClientOption {
	return func(c *clientConfig) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the default request timeout.
// Note: This option is ignored when WithHTTPClient is used;
// set the timeout directly on the provided client instead.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request and pagination diagnostics.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithRateLimit limits the client to n requests per period. Requests
// over the limit wait for a free slot or for their context to end.
func WithRateLimit(n int, per time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.rateRequests = n
		c.ratePer = per
	}
}

// WithMetrics registers request counters and latency histograms with reg.
func WithMetrics(reg prometheus.Registerer) ClientOption {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithTracing wraps the HTTP transport with OpenTelemetry instrumentation
// using the global tracer provider.
func WithTracing() ClientOption {
	return func(c *clientConfig) {
		c.tracing = true
	}
}

// RequestOption configures individual API requests.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		headers: make(http.Header),
	}
}

func (r *requestConfig) apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// WithHeader adds a custom header to a request.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to a request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *requestConfig) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}

// WithRequestID sets the X-Request-ID header for tracing.
func WithRequestID(id string) RequestOption {
	return WithHeader("X-Request-ID", id)
}

// WithIdempotencyKey sets the Idempotency-Key header so a retried POST is
// applied at most once. An empty key is replaced by a random UUID.
func WithIdempotencyKey(key string) RequestOption {
	if key == "" {
		key = uuid.NewString()
	}
	return WithHeader("Idempotency-Key", key)
}
