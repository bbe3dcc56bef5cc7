// Package recurly provides a Go client for the Recurly v2 XML REST API.
//
// Basic usage:
//
//	client, err := recurly.NewClient(
//	    recurly.WithSubdomain("mycompany"),
//	    recurly.WithAPIKey(apiKey),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Walk all active accounts
//	for account, err := range client.Accounts.List(ctx, recurly.Filter{"state": "active"}) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(account.AccountCode)
//	}
package recurly

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/go-recurly/internal/api"
	"github.com/tphakala/go-recurly/internal/auth"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.recurly.com/v2"
	defaultTimeout = 30 * time.Second
)

// Client is the Recurly API client.
type Client struct {
	// Accounts provides access to account operations.
	Accounts AccountService

	// BillingInfo provides access to stored payment methods.
	BillingInfo BillingInfoService

	// Redemptions provides access to coupon redemptions.
	Redemptions RedemptionService

	// Plans provides access to plan operations.
	Plans PlanService

	// Subscriptions provides access to subscription operations.
	Subscriptions SubscriptionService

	// Invoices provides access to invoice operations.
	Invoices InvoiceService

	// Transactions provides access to transaction operations.
	Transactions TransactionService

	// Coupons provides access to coupon operations.
	Coupons CouponService

	// Usage provides access to usage records of usage-based add-ons.
	Usage UsageService

	transport *api.Transport
	logger    *slog.Logger
}

// NewClient creates a new Recurly client with the given options.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.baseURL == "" {
		return nil, ErrNoBaseURL
	}

	if cfg.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	creds := &auth.Credentials{
		APIKey: cfg.apiKey,
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}
	if cfg.tracing {
		httpClient = api.Instrument(httpClient)
	}

	transport, err := api.NewTransport(cfg.baseURL, creds, httpClient)
	if err != nil {
		return nil, err
	}

	if cfg.userAgent != "" {
		transport.UserAgent = cfg.userAgent
	}
	if cfg.apiVersion != "" {
		transport.APIVersion = cfg.apiVersion
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	transport.Logger = logger

	if cfg.rateRequests > 0 && cfg.ratePer > 0 {
		every := cfg.ratePer / time.Duration(cfg.rateRequests)
		transport.Limiter = rate.NewLimiter(rate.Every(every), cfg.rateRequests)
	}

	if cfg.registerer != nil {
		metrics, err := api.NewMetrics(cfg.registerer)
		if err != nil {
			return nil, err
		}
		transport.Metrics = metrics
	}

	client := &Client{
		transport: transport,
		logger:    logger,
	}

	// Initialize services
	svc := &service{transport: transport, logger: logger}
	client.Accounts = newAccountService(svc)
	client.BillingInfo = newBillingInfoService(svc)
	client.Redemptions = newRedemptionService(svc)
	client.Plans = newPlanService(svc)
	client.Subscriptions = newSubscriptionService(svc)
	client.Invoices = newInvoiceService(svc)
	client.Transactions = newTransactionService(svc)
	client.Coupons = newCouponService(svc)
	client.Usage = newUsageService(svc)

	return client, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}
