package recurly

import (
	"context"
	"net/http"
)

// BillingInfoService provides operations on the payment method stored on
// an account.
type BillingInfoService interface {
	// Get retrieves the billing info of an account.
	Get(ctx context.Context, accountCode string, opts ...RequestOption) (*BillingInfo, error)

	// Update stores new billing info on an account. Combine with
	// WithSkipAuthorization to skip the card authorization.
	Update(ctx context.Context, accountCode string, req *BillingInfoRequest, opts ...RequestOption) (*BillingInfo, error)
}

// billingInfoService implements BillingInfoService.
type billingInfoService struct {
	svc *service
}

func newBillingInfoService(svc *service) *billingInfoService {
	return &billingInfoService{svc: svc}
}

// WithSkipAuthorization stores billing info without the verification
// authorization the gateway would otherwise run.
func WithSkipAuthorization() RequestOption {
	return WithHeader("Recurly-Skip-Authorization", "true")
}

func billingInfoPath(accountCode string) string {
	return accountPath(accountCode) + "/billing_info"
}

// validateBillingInfoRequest checks that either a token or the card fields
// are present.
func validateBillingInfoRequest(req *BillingInfoRequest) error {
	if req == nil {
		return validationError("billing info request cannot be nil")
	}
	if req.TokenID != "" {
		return nil
	}
	switch {
	case req.FirstName == "":
		return validationError("billing info first name is required")
	case req.LastName == "":
		return validationError("billing info last name is required")
	case req.Number == "":
		return validationError("billing info card number is required")
	case req.Month == 0:
		return validationError("billing info expiration month is required")
	case req.Year == 0:
		return validationError("billing info expiration year is required")
	}
	return nil
}

// Get retrieves the billing info of an account.
func (s *billingInfoService) Get(ctx context.Context, accountCode string, opts ...RequestOption) (*BillingInfo, error) {
	if err := requireID("account code", accountCode); err != nil {
		return nil, err
	}

	info, err := fetch[BillingInfo](ctx, s.svc, call{
		method: http.MethodGet,
		path:   billingInfoPath(accountCode),
		valid:  []int{http.StatusOK},
	}, opts)
	return info, withResource(err, "billing info", accountCode)
}

// Update stores new billing info on an account.
func (s *billingInfoService) Update(ctx context.Context, accountCode string, req *BillingInfoRequest, opts ...RequestOption) (*BillingInfo, error) {
	if err := requireID("account code", accountCode); err != nil {
		return nil, err
	}
	if err := validateBillingInfoRequest(req); err != nil {
		return nil, err
	}

	info, err := fetch[BillingInfo](ctx, s.svc, call{
		method: http.MethodPut,
		path:   billingInfoPath(accountCode),
		body:   req,
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
	return info, withResource(err, "account", accountCode)
}
