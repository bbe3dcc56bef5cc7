package recurly

import (
	"context"
	"net/http"
)

// RedemptionService provides access to coupon redemptions.
type RedemptionService interface {
	// Get retrieves the coupon redemption active on an account.
	Get(ctx context.Context, accountCode string, opts ...RequestOption) (*Redemption, error)
}

// redemptionService implements RedemptionService.
type redemptionService struct {
	svc *service
}

func newRedemptionService(svc *service) *redemptionService {
	return &redemptionService{svc: svc}
}

// Get retrieves the coupon redemption active on an account.
func (s *redemptionService) Get(ctx context.Context, accountCode string, opts ...RequestOption) (*Redemption, error) {
	if err := requireID("account code", accountCode); err != nil {
		return nil, err
	}

	r, err := fetch[Redemption](ctx, s.svc, call{
		method: http.MethodGet,
		path:   accountPath(accountCode) + "/redemption",
		valid:  []int{http.StatusOK},
	}, opts)
	return r, withResource(err, "redemption", accountCode)
}
