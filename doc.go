// Package recurly provides a native Go client for the Recurly v2 XML REST
// API.
//
// # Features
//
//   - Service-based architecture with one service per resource
//   - Lazy pagination over Link headers with Go 1.23+ iterators
//   - Typed XML decoding into plain Go structs
//   - Typed errors for precise error handling
//   - Functional options for flexible configuration
//   - Optional rate limiting, Prometheus metrics and OpenTelemetry tracing
//
// # Quick Start
//
//	client, err := recurly.NewClient(
//	    recurly.WithSubdomain("mycompany"),
//	    recurly.WithAPIKey(apiKey),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Walk subscriptions
//	for sub, err := range client.Subscriptions.List(ctx, recurly.Filter{"state": "active"}) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("Subscription: %s (%s)\n", sub.UUID, sub.Plan.PlanCode)
//	}
//
// # Error Handling
//
// The package uses typed errors that can be inspected with errors.As:
//
//	account, err := client.Accounts.Get(ctx, "missing")
//	if err != nil {
//	    var notFound *recurly.NotFoundError
//	    if errors.As(err, &notFound) {
//	        // Handle not found
//	    }
//	}
//
// # Pagination
//
// Collections are fetched 200 records per page. The pager reads the total
// from the X-Records header of the first page and follows rel="next" links
// until that many records were returned or the links run out:
//
//	// Iterate over all results
//	for account, err := range client.Accounts.List(ctx, nil) {
//	    // ...
//	}
//
//	// Drain into a map keyed by account code
//	accounts, err := client.Accounts.All(ctx, nil)
//
//	// Or pull records one at a time
//	pager := client.Accounts.Iterator(recurly.Filter{"state": "closed"})
//	for {
//	    account, err := pager.Next(ctx)
//	    if errors.Is(err, recurly.Done) {
//	        break
//	    }
//	    // ...
//	}
//
// # Records
//
// Every record embeds Resource. Child elements that only carry an href,
// such as <account href="..."/> on a subscription, are not decoded as
// nested objects; they are collected in Resource.Links. Action anchors end
// up in Resource.Actions, and fields the struct does not declare are kept
// in Resource.Extra.
package recurly
