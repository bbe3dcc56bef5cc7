package recurly

import (
	"context"
	"iter"
	"net/http"
)

// UsageService records usage against usage-based subscription add-ons.
type UsageService interface {
	// Create reports usage for an add-on of a subscription.
	Create(ctx context.Context, subscriptionUUID, addOnCode string, req *UsageRequest, opts ...RequestOption) (*Usage, error)

	// List returns an iterator over usage recorded for an add-on of a
	// subscription.
	List(ctx context.Context, subscriptionUUID, addOnCode string, filter Filter, opts ...RequestOption) iter.Seq2[*Usage, error]
}

// usageService implements UsageService.
type usageService struct {
	svc *service
}

func newUsageService(svc *service) *usageService {
	return &usageService{svc: svc}
}

func usagePath(subscriptionUUID, addOnCode string) string {
	return subscriptionPath(subscriptionUUID) + "/add_ons/" + escape(addOnCode) + "/usage"
}

func validateUsageTarget(subscriptionUUID, addOnCode string) error {
	if err := requireID("subscription UUID", subscriptionUUID); err != nil {
		return err
	}
	return requireID("add-on code", addOnCode)
}

// Create reports usage for an add-on of a subscription.
func (s *usageService) Create(ctx context.Context, subscriptionUUID, addOnCode string, req *UsageRequest, opts ...RequestOption) (*Usage, error) {
	if err := validateUsageTarget(subscriptionUUID, addOnCode); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, validationError("usage request cannot be nil")
	}

	return fetch[Usage](ctx, s.svc, call{
		method: http.MethodPost,
		path:   usagePath(subscriptionUUID, addOnCode),
		body:   req,
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
}

// List returns an iterator over usage recorded for an add-on.
func (s *usageService) List(ctx context.Context, subscriptionUUID, addOnCode string, filter Filter, opts ...RequestOption) iter.Seq2[*Usage, error] {
	if err := validateUsageTarget(subscriptionUUID, addOnCode); err != nil {
		return failed[*Usage](err)
	}
	return newPager[Usage](s.svc, usagePath(subscriptionUUID, addOnCode), filter, opts).All(ctx)
}
