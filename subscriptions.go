package recurly

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"time"
)

const subscriptionsPath = "subscriptions"

// SubscriptionService provides operations on subscriptions.
//
// The state-changing operations take the subscription itself so that the
// action links it advertises are followed when present.
type SubscriptionService interface {
	// Iterator returns a pager over subscriptions matching filter.
	Iterator(filter Filter, opts ...RequestOption) *Pager[Subscription]

	// List returns an iterator over all subscriptions matching filter.
	List(ctx context.Context, filter Filter, opts ...RequestOption) iter.Seq2[*Subscription, error]

	// All returns every subscription matching filter keyed by UUID.
	All(ctx context.Context, filter Filter, opts ...RequestOption) (map[string]*Subscription, error)

	// Count returns the number of subscriptions matching filter.
	Count(ctx context.Context, filter Filter, opts ...RequestOption) (int, error)

	// Get retrieves a single subscription by UUID.
	Get(ctx context.Context, uuid string, opts ...RequestOption) (*Subscription, error)

	// Create subscribes an account to a plan.
	Create(ctx context.Context, req *SubscriptionRequest, opts ...RequestOption) (*Subscription, error)

	// Update changes a subscription now or at renewal.
	Update(ctx context.Context, sub *Subscription, req *SubscriptionUpdateRequest, opts ...RequestOption) (*Subscription, error)

	// Cancel cancels a subscription at the end of the current period.
	Cancel(ctx context.Context, sub *Subscription, opts ...RequestOption) (*Subscription, error)

	// Reactivate reactivates a canceled subscription.
	Reactivate(ctx context.Context, sub *Subscription, opts ...RequestOption) (*Subscription, error)

	// Postpone moves the next renewal to nextRenewal.
	Postpone(ctx context.Context, sub *Subscription, nextRenewal time.Time, opts ...RequestOption) (*Subscription, error)

	// Terminate ends a subscription immediately with the given refund.
	Terminate(ctx context.Context, sub *Subscription, refund RefundType, opts ...RequestOption) (*Subscription, error)
}

// subscriptionService implements SubscriptionService.
type subscriptionService struct {
	collection[Subscription, *Subscription]
}

func newSubscriptionService(svc *service) *subscriptionService {
	return &subscriptionService{
		collection: collection[Subscription, *Subscription]{svc: svc, path: subscriptionsPath},
	}
}

func subscriptionPath(uuid string) string {
	return subscriptionsPath + "/" + escape(uuid)
}

// validateSubscriptionRequest validates the create subscription request.
func validateSubscriptionRequest(req *SubscriptionRequest) error {
	if req == nil {
		return validationError("subscription request cannot be nil")
	}
	if req.PlanCode == "" {
		return validationError("subscription plan code is required")
	}
	if req.Account == nil {
		return validationError("subscription account is required")
	}
	if req.Account.AccountCode == "" {
		return validationError("subscription account code is required")
	}
	if req.Currency == "" {
		return validationError("subscription currency is required")
	}
	return nil
}

func validateSubscription(sub *Subscription) error {
	if sub == nil {
		return validationError("subscription cannot be nil")
	}
	return requireID("subscription UUID", sub.UUID)
}

// Get retrieves a single subscription by UUID.
func (s *subscriptionService) Get(ctx context.Context, uuid string, opts ...RequestOption) (*Subscription, error) {
	if err := requireID("subscription UUID", uuid); err != nil {
		return nil, err
	}

	sub, err := fetch[Subscription](ctx, s.svc, call{
		method: http.MethodGet,
		path:   subscriptionPath(uuid),
		valid:  []int{http.StatusOK},
	}, opts)
	return sub, withResource(err, "subscription", uuid)
}

// Create subscribes an account to a plan.
func (s *subscriptionService) Create(ctx context.Context, req *SubscriptionRequest, opts ...RequestOption) (*Subscription, error) {
	if err := validateSubscriptionRequest(req); err != nil {
		return nil, err
	}

	return fetch[Subscription](ctx, s.svc, call{
		method: http.MethodPost,
		path:   subscriptionsPath,
		body:   req,
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
}

// Update changes a subscription.
func (s *subscriptionService) Update(ctx context.Context, sub *Subscription, req *SubscriptionUpdateRequest, opts ...RequestOption) (*Subscription, error) {
	if err := validateSubscription(sub); err != nil {
		return nil, err
	}
	if req == nil || req.Timeframe == "" {
		return nil, validationError("subscription update timeframe is required")
	}

	path := sub.Href
	if path == "" {
		path = subscriptionPath(sub.UUID)
	}

	updated, err := fetch[Subscription](ctx, s.svc, call{
		method: http.MethodPut,
		path:   path,
		body:   req,
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
	return updated, withResource(err, "subscription", sub.UUID)
}

// Cancel cancels a subscription.
func (s *subscriptionService) Cancel(ctx context.Context, sub *Subscription, opts ...RequestOption) (*Subscription, error) {
	return s.act(ctx, sub, "cancel", nil, []int{http.StatusOK}, opts)
}

// Reactivate reactivates a canceled subscription.
func (s *subscriptionService) Reactivate(ctx context.Context, sub *Subscription, opts ...RequestOption) (*Subscription, error) {
	return s.act(ctx, sub, "reactivate", nil, []int{http.StatusOK}, opts)
}

// Postpone moves the next renewal date.
func (s *subscriptionService) Postpone(ctx context.Context, sub *Subscription, nextRenewal time.Time, opts ...RequestOption) (*Subscription, error) {
	if nextRenewal.IsZero() {
		return nil, validationError("next renewal date is required")
	}
	query := url.Values{"next_renewal_date": {nextRenewal.UTC().Format(time.RFC3339)}}
	return s.act(ctx, sub, "postpone", query, []int{http.StatusOK}, opts)
}

// Terminate ends a subscription immediately.
func (s *subscriptionService) Terminate(ctx context.Context, sub *Subscription, refund RefundType, opts ...RequestOption) (*Subscription, error) {
	if !refund.valid() {
		return nil, validationError("refund type %q is not valid", refund)
	}
	query := url.Values{"refund": {string(refund)}}
	return s.act(ctx, sub, "terminate", query, []int{http.StatusOK, http.StatusCreated}, opts)
}

// act performs a named subscription action with PUT.
func (s *subscriptionService) act(ctx context.Context, sub *Subscription, action string, query url.Values, valid []int, opts []RequestOption) (*Subscription, error) {
	if err := validateSubscription(sub); err != nil {
		return nil, err
	}

	path := sub.actionHref(action, subscriptionPath(sub.UUID)+"/"+action)
	updated, err := fetch[Subscription](ctx, s.svc, call{
		method: http.MethodPut,
		path:   path,
		query:  query,
		valid:  valid,
	}, opts)
	return updated, withResource(err, "subscription", sub.UUID)
}
