package recurly_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-recurly"
	"github.com/tphakala/go-recurly/internal/typedxml"
)

// accountsPage renders a collection page holding one account per code.
func accountsPage(codes ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<accounts type="array">`)
	for _, code := range codes {
		fmt.Fprintf(&b, `<account href="https://api.recurly.com/v2/accounts/%[1]s">`+
			`<invoices href="https://api.recurly.com/v2/accounts/%[1]s/invoices"/>`+
			`<account_code>%[1]s</account_code><state>active</state>`+
			`<created_at type="datetime">2011-10-25T12:00:00Z</created_at></account>`, code)
	}
	b.WriteString(`</accounts>`)
	return []byte(b.String())
}

func codesOf(accounts []*recurly.Account) []string {
	codes := make([]string, len(accounts))
	for i, a := range accounts {
		codes[i] = a.AccountCode
	}
	return codes
}

func TestPager_FollowsNextLinks(t *testing.T) {
	var requests atomic.Int32
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/accounts", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("per_page"))

		switch r.URL.Query().Get("cursor") {
		case "":
			assert.Equal(t, "active", r.URL.Query().Get("state"))
			w.Header().Set("X-Records", "5")
			// Absolute link.
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/v2/accounts?cursor=2&state=active>; rel="next"`, r.Host))
			writeXML(t, w, http.StatusOK, accountsPage("a1", "a2"))
		case "2":
			// Relative link, plus a start link that must be ignored.
			w.Header().Set("Link", `</v2/accounts?state=active>; rel="start", </v2/accounts?cursor=4&state=active>; rel="next"`)
			writeXML(t, w, http.StatusOK, accountsPage("a3", "a4"))
		case "4":
			writeXML(t, w, http.StatusOK, accountsPage("a5"))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})

	ctx := context.Background()
	pager := client.Accounts.Iterator(recurly.Filter{"state": "active"})
	assert.Equal(t, -1, pager.Total())

	var got []*recurly.Account
	for {
		account, err := pager.Next(ctx)
		if errors.Is(err, recurly.Done) {
			break
		}
		require.NoError(t, err)
		got = append(got, account)
	}

	assert.Equal(t, []string{"a1", "a2", "a3", "a4", "a5"}, codesOf(got))
	assert.Equal(t, 5, pager.Total())
	assert.Equal(t, 5, pager.Emitted())
	assert.Equal(t, int32(3), requests.Load())

	_, err := pager.Next(ctx)
	require.ErrorIs(t, err, recurly.Done)
	require.NoError(t, pager.Err())
	assert.Equal(t, int32(3), requests.Load())
}

func TestPager_ErrorIsSticky(t *testing.T) {
	var requests atomic.Int32
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("cursor") == "" {
			w.Header().Set("X-Records", "10")
			w.Header().Set("Link", `</v2/accounts?cursor=next>; rel="next"`)
			writeXML(t, w, http.StatusOK, accountsPage("a1", "a2", "a3", "a4", "a5"))
			return
		}
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx := context.Background()
	pager := client.Accounts.Iterator(nil)
	for i := range 5 {
		account, err := pager.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("a%d", i+1), account.AccountCode)
	}

	_, err := pager.Next(ctx)
	var rateLimit *recurly.RateLimitError
	require.ErrorAs(t, err, &rateLimit)

	_, again := pager.Next(ctx)
	assert.Same(t, err, again)
	assert.Same(t, err, pager.Err())
	assert.Equal(t, 5, pager.Emitted())
	assert.Equal(t, int32(2), requests.Load())
}

func TestPager_Termination(t *testing.T) {
	ctx := context.Background()

	t.Run("declared total larger than the collection", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Records", "10")
			writeXML(t, w, http.StatusOK, accountsPage("a1", "a2", "a3"))
		})

		got, err := recurly.Collect(client.Accounts.List(ctx, nil))
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("declared total caps iteration", func(t *testing.T) {
		var requests atomic.Int32
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("X-Records", "2")
			w.Header().Set("Link", `</v2/accounts?cursor=more>; rel="next"`)
			writeXML(t, w, http.StatusOK, accountsPage("a1", "a2", "a3"))
		})

		got, err := recurly.Collect(client.Accounts.List(ctx, nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2"}, codesOf(got))
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("empty page ends iteration", func(t *testing.T) {
		var requests atomic.Int32
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("Link", `</v2/accounts?cursor=more>; rel="next"`)
			if r.URL.Query().Get("cursor") == "" {
				writeXML(t, w, http.StatusOK, accountsPage("a1", "a2"))
				return
			}
			writeXML(t, w, http.StatusOK, []byte(`<accounts type="array"></accounts>`))
		})

		pager := client.Accounts.Iterator(nil)
		got, err := recurly.Collect(pager.All(ctx))
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, -1, pager.Total())
		assert.Equal(t, int32(2), requests.Load())
	})

	t.Run("empty collection", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Records", "0")
			writeXML(t, w, http.StatusOK, []byte(`<accounts type="array"></accounts>`))
		})

		pager := client.Accounts.Iterator(nil)
		_, err := pager.Next(ctx)
		require.ErrorIs(t, err, recurly.Done)
		assert.Equal(t, 0, pager.Total())
	})

	t.Run("single record page", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeXML(t, w, http.StatusOK, accountsPage("only"))
		})

		got, err := recurly.Collect(client.Accounts.List(ctx, nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"only"}, codesOf(got))
	})
}

func TestPager_MalformedPage(t *testing.T) {
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeXML(t, w, http.StatusOK, []byte(`<accounts type="array"><account>`))
	})

	_, err := recurly.Collect(client.Accounts.List(context.Background(), nil))
	var syntaxErr *typedxml.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}

func TestPager_ContextCanceled(t *testing.T) {
	var requests atomic.Int32
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeXML(t, w, http.StatusOK, accountsPage("a1"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := recurly.Collect(client.Accounts.List(ctx, nil))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), requests.Load())
}

func TestPager_StopsFetchingWhenCallerStops(t *testing.T) {
	var requests atomic.Int32
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("X-Records", "400")
		w.Header().Set("Link", `</v2/accounts?cursor=more>; rel="next"`)
		writeXML(t, w, http.StatusOK, accountsPage("a1", "a2"))
	})

	first, err := recurly.First(client.Accounts.List(context.Background(), nil))
	require.NoError(t, err)
	assert.Equal(t, "a1", first.AccountCode)
	assert.Equal(t, int32(1), requests.Load())
}

func TestCollection_All(t *testing.T) {
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeXML(t, w, http.StatusOK, accountsPage("acme", "globex"))
	})

	accounts, err := client.Accounts.All(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, recurly.AccountActive, accounts["acme"].State)
	assert.Equal(t, "https://api.recurly.com/v2/accounts/globex/invoices", accounts["globex"].Links["invoices"])
}

func TestCollection_Count(t *testing.T) {
	t.Run("reads the declared total", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			assert.Equal(t, "/v2/subscriptions", r.URL.Path)
			assert.Equal(t, "live", r.URL.Query().Get("state"))
			w.Header().Set("X-Records", "42")
			w.WriteHeader(http.StatusOK)
		})

		n, err := client.Subscriptions.Count(context.Background(), recurly.Filter{"state": "live"})
		require.NoError(t, err)
		assert.Equal(t, 42, n)
	})

	t.Run("missing header", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		_, err := client.Accounts.Count(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "X-Records")
	})
}
