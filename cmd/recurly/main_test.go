package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("RECURLY_API_KEY", "test-api-key")
	t.Setenv("RECURLY_BASE_URL", server.URL+"/v2")
	t.Setenv("RECURLY_RATE_LIMIT", "100")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return out.String(), err
}

func accounts(codes ...string) string {
	var b strings.Builder
	b.WriteString(`<accounts type="array">`)
	for _, code := range codes {
		fmt.Fprintf(&b, `<account href="https://api.recurly.com/v2/accounts/%[1]s">`+
			`<account_code>%[1]s</account_code><state>active</state><email>%[1]s@example.com</email></account>`, code)
	}
	b.WriteString(`</accounts>`)
	return b.String()
}

func TestListCommand(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/accounts", r.URL.Path)
		assert.Equal(t, "active", r.URL.Query().Get("state"))
		if r.URL.Query().Get("cursor") == "" {
			w.Header().Set("X-Records", "3")
			w.Header().Set("Link", `</v2/accounts?cursor=2&state=active>; rel="next"`)
			_, _ = w.Write([]byte(accounts("acme", "globex")))
			return
		}
		_, _ = w.Write([]byte(accounts("initech")))
	})

	out, err := run(t, "list", "accounts", "--state", "active")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"acme", "active", "acme@example.com"}, strings.Fields(lines[0]))
	assert.Equal(t, "initech", strings.Fields(lines[2])[0])
}

func TestListCommand_Limit(t *testing.T) {
	var requests atomic.Int32
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Link", `</v2/accounts?cursor=more>; rel="next"`)
		_, _ = w.Write([]byte(accounts("acme", "globex")))
	})

	out, err := run(t, "list", "accounts", "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)
	assert.Equal(t, int32(1), requests.Load())
}

func TestListCommand_UnknownResource(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := run(t, "list", "widgets")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown resource "widgets"`)
}

func TestCountCommand(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "/v2/subscriptions", r.URL.Path)
		assert.Equal(t, "live", r.URL.Query().Get("state"))
		w.Header().Set("X-Records", "17")
	})

	out, err := run(t, "count", "subscriptions", "--state", "live")
	require.NoError(t, err)
	assert.Equal(t, "17\n", out)
}

func TestSummaryCommand(t *testing.T) {
	counts := map[string]string{
		"/v2/accounts":      "12",
		"/v2/coupons":       "2",
		"/v2/invoices":      "40",
		"/v2/plans":         "3",
		"/v2/subscriptions": "9",
		"/v2/transactions":  "55",
	}
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		n, ok := counts[r.URL.Path]
		assert.True(t, ok, r.URL.Path)
		w.Header().Set("X-Records", n)
	})

	out, err := run(t, "summary")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"accounts", "12"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"transactions", "55"}, strings.Fields(lines[5]))
}

func TestSummaryCommand_Error(t *testing.T) {
	setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/invoices" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Records", "1")
	})

	_, err := run(t, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting invoices")
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("RECURLY_API_KEY", "")
	t.Setenv("RECURLY_BASE_URL", "")

	_, err := run(t, "count", "accounts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
}
