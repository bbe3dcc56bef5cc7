// Package auth provides Recurly API key authentication.
package auth

import "net/http"

// Credentials holds the private API key used for HTTP Basic auth.
type Credentials struct {
	APIKey string
}

// Apply adds the Authorization header to an HTTP request. The API key is
// sent as the Basic auth username with an empty password.
func (c *Credentials) Apply(req *http.Request) {
	if c == nil {
		return
	}
	req.SetBasicAuth(c.APIKey, "")
}

// Valid reports whether credentials are configured.
func (c *Credentials) Valid() bool {
	return c != nil && c.APIKey != ""
}
