// Command recurly walks Recurly collections from the command line.
//
// Configuration comes from the environment:
//
//	RECURLY_API_KEY     private API key (required)
//	RECURLY_SUBDOMAIN   site subdomain, for https://<subdomain>.recurly.com/v2
//	RECURLY_BASE_URL    full API base URL, overrides the subdomain
//	RECURLY_RATE_LIMIT  client-side request limit per second
//	RECURLY_LOG_LEVEL   debug, info, warn or error
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
