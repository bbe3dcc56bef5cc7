package api

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Instrument returns a copy of client whose transport emits OpenTelemetry
// spans for every request. The original client is left untouched.
func Instrument(client *http.Client) *http.Client {
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	instrumented := *client
	instrumented.Transport = otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "recurly " + r.Method + " " + r.URL.Path
		}),
	)
	return &instrumented
}
