package api_test

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tphakala/go-recurly/internal/api"
	"github.com/tphakala/go-recurly/internal/auth"
)

func newTransport(t *testing.T, handler http.HandlerFunc) (*api.Transport, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	transport, err := api.NewTransport(server.URL+"/v2/", &auth.Credentials{APIKey: "secret"}, nil)
	require.NoError(t, err)
	return transport, server
}

func TestNewTransport(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		_, err := api.NewTransport("https://api.recurly.com/v2", nil, nil)
		require.Error(t, err)
	})

	t.Run("rejects relative base URL", func(t *testing.T) {
		_, err := api.NewTransport("api.recurly.com/v2", &auth.Credentials{APIKey: "k"}, nil)
		require.Error(t, err)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		transport, err := api.NewTransport("https://api.recurly.com/v2/", &auth.Credentials{APIKey: "k"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://api.recurly.com/v2", transport.BaseURL.String())
		assert.Equal(t, api.DefaultAPIVersion, transport.APIVersion)
	})
}

func TestTransport_Do(t *testing.T) {
	t.Run("sets default headers", func(t *testing.T) {
		transport, _ := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v2/accounts", r.URL.Path)
			assert.Equal(t, "application/xml", r.Header.Get("Accept"))
			assert.Equal(t, api.DefaultAPIVersion, r.Header.Get("X-Api-Version"))
			assert.Equal(t, "go-recurly/1.0", r.Header.Get("User-Agent"))
			assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))

			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "secret", user)
			assert.Empty(t, pass)

			w.Header().Set("X-Records", "3")
			_, _ = w.Write([]byte(`<accounts type="array"/>`))
		})

		resp, err := transport.Do(context.Background(), &api.Request{
			Method:  http.MethodGet,
			Path:    "accounts",
			Headers: http.Header{"X-Request-Id": []string{"req-1"}},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "3", resp.Headers.Get("X-Records"))
		assert.Equal(t, `<accounts type="array"/>`, string(resp.Body))
		assert.Equal(t, "/v2/accounts", resp.URL.Path)
	})

	t.Run("merges query over path query", func(t *testing.T) {
		transport, _ := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "active", r.URL.Query().Get("state"))
			assert.Equal(t, "200", r.URL.Query().Get("per_page"))
			assert.Equal(t, "abc", r.URL.Query().Get("cursor"))
		})

		_, err := transport.Do(context.Background(), &api.Request{
			Method: http.MethodGet,
			Path:   "accounts?state=active&per_page=50&cursor=abc",
			Query:  url.Values{"per_page": {"200"}},
		})
		require.NoError(t, err)
	})

	t.Run("absolute URLs bypass the base URL", func(t *testing.T) {
		transport, server := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/elsewhere/accounts/1", r.URL.Path)
		})

		_, err := transport.Do(context.Background(), &api.Request{
			Method: http.MethodGet,
			Path:   server.URL + "/elsewhere/accounts/1",
		})
		require.NoError(t, err)
	})

	t.Run("marshals XML body", func(t *testing.T) {
		type account struct {
			XMLName     xml.Name `xml:"account"`
			AccountCode string   `xml:"account_code"`
		}

		transport, _ := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/xml; charset=utf-8", r.Header.Get("Content-Type"))
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Equal(t, xml.Header+`<account><account_code>a-1</account_code></account>`, string(body))
			w.WriteHeader(http.StatusCreated)
		})

		resp, err := transport.Do(context.Background(), &api.Request{
			Method: http.MethodPost,
			Path:   "accounts",
			Body:   &account{AccountCode: "a-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("sends raw bytes verbatim", func(t *testing.T) {
		transport, _ := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "<x/>", string(body))
		})

		_, err := transport.Do(context.Background(), &api.Request{
			Method: http.MethodPut,
			Path:   "x",
			Body:   []byte("<x/>"),
		})
		require.NoError(t, err)
	})

	t.Run("transport error", func(t *testing.T) {
		transport, server := newTransport(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		_, err := transport.Do(context.Background(), &api.Request{Method: http.MethodGet, Path: "accounts"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "request failed")
	})

	t.Run("rate limiter honours context", func(t *testing.T) {
		transport, _ := newTransport(t, func(w http.ResponseWriter, r *http.Request) {})
		transport.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

		_, err := transport.Do(context.Background(), &api.Request{Method: http.MethodGet, Path: "accounts"})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = transport.Do(ctx, &api.Request{Method: http.MethodGet, Path: "accounts"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limiter")
	})
}

func TestTransport_ResolveURL(t *testing.T) {
	transport, err := api.NewTransport("https://api.recurly.com/v2", &auth.Credentials{APIKey: "k"}, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"relative path", "accounts", "https://api.recurly.com/v2/accounts"},
		{"rooted path", "/plans/gold", "https://api.recurly.com/v2/plans/gold"},
		{"keeps escaped slash", "/accounts/a%2Fb", "https://api.recurly.com/v2/accounts/a%2Fb"},
		{"keeps query", "/accounts/a%2Fb/invoices?state=paid", "https://api.recurly.com/v2/accounts/a%2Fb/invoices?state=paid"},
		{"absolute URL", "https://acme.recurly.com/v2/accounts?cursor=2", "https://acme.recurly.com/v2/accounts?cursor=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := transport.ResolveURL(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.String())
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := api.NewMetrics(reg)
	require.NoError(t, err)

	transport, _ := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	transport.Metrics = metrics

	_, err = transport.Do(context.Background(), &api.Request{Method: http.MethodGet, Path: "accounts/missing"})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "recurly_client_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Run("registering twice reuses collectors", func(t *testing.T) {
		again, err := api.NewMetrics(reg)
		require.NoError(t, err)
		assert.NotNil(t, again)
	})
}

func TestInstrument(t *testing.T) {
	original := &http.Client{Timeout: time.Second}
	instrumented := api.Instrument(original)

	assert.Nil(t, original.Transport, "original client must not be modified")
	assert.NotNil(t, instrumented.Transport)
	assert.Equal(t, time.Second, instrumented.Timeout)
}
