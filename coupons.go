package recurly

import (
	"context"
	"iter"
	"net/http"
)

const couponsPath = "coupons"

// CouponService provides operations on coupons.
type CouponService interface {
	// Iterator returns a pager over coupons matching filter.
	Iterator(filter Filter, opts ...RequestOption) *Pager[Coupon]

	// List returns an iterator over all coupons matching filter.
	List(ctx context.Context, filter Filter, opts ...RequestOption) iter.Seq2[*Coupon, error]

	// All returns every coupon matching filter keyed by coupon code.
	All(ctx context.Context, filter Filter, opts ...RequestOption) (map[string]*Coupon, error)

	// Count returns the number of coupons matching filter.
	Count(ctx context.Context, filter Filter, opts ...RequestOption) (int, error)

	// Get retrieves a single coupon by code.
	Get(ctx context.Context, code string, opts ...RequestOption) (*Coupon, error)

	// Create creates a new coupon.
	Create(ctx context.Context, req *CouponRequest, opts ...RequestOption) (*Coupon, error)

	// Redeem applies a coupon to an account.
	Redeem(ctx context.Context, code string, req *RedemptionRequest, opts ...RequestOption) (*Redemption, error)

	// Delete deactivates a coupon.
	Delete(ctx context.Context, code string, opts ...RequestOption) error
}

// couponService implements CouponService.
type couponService struct {
	collection[Coupon, *Coupon]
}

func newCouponService(svc *service) *couponService {
	return &couponService{
		collection: collection[Coupon, *Coupon]{svc: svc, path: couponsPath},
	}
}

func couponPath(code string) string {
	return couponsPath + "/" + escape(code)
}

// validateCouponRequest validates the create coupon request.
func validateCouponRequest(req *CouponRequest) error {
	if req == nil {
		return validationError("coupon request cannot be nil")
	}
	if req.CouponCode == "" {
		return validationError("coupon code is required")
	}
	if req.Name == "" {
		return validationError("coupon name is required")
	}
	switch req.DiscountType {
	case "":
		return validationError("coupon discount type is required")
	case DiscountPercent, DiscountDollars:
	default:
		return validationError("coupon discount type must be %q or %q, got %q",
			DiscountPercent, DiscountDollars, req.DiscountType)
	}
	if req.AppliesToAllPlans != nil && !*req.AppliesToAllPlans && len(req.PlanCodes) == 0 {
		return validationError("coupons that do not apply to all plans must list plan codes")
	}
	return nil
}

// Get retrieves a single coupon by code.
func (s *couponService) Get(ctx context.Context, code string, opts ...RequestOption) (*Coupon, error) {
	if err := requireID("coupon code", code); err != nil {
		return nil, err
	}

	coupon, err := fetch[Coupon](ctx, s.svc, call{
		method: http.MethodGet,
		path:   couponPath(code),
		valid:  []int{http.StatusOK},
	}, opts)
	return coupon, withResource(err, "coupon", code)
}

// Create creates a new coupon.
func (s *couponService) Create(ctx context.Context, req *CouponRequest, opts ...RequestOption) (*Coupon, error) {
	if err := validateCouponRequest(req); err != nil {
		return nil, err
	}

	return fetch[Coupon](ctx, s.svc, call{
		method: http.MethodPost,
		path:   couponsPath,
		body:   req,
		valid:  []int{http.StatusCreated},
	}, opts)
}

// Redeem applies a coupon to an account.
func (s *couponService) Redeem(ctx context.Context, code string, req *RedemptionRequest, opts ...RequestOption) (*Redemption, error) {
	if err := requireID("coupon code", code); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, validationError("redemption request cannot be nil")
	}
	if req.AccountCode == "" {
		return nil, validationError("redemption account code is required")
	}
	if req.Currency == "" {
		return nil, validationError("redemption currency is required")
	}

	r, err := fetch[Redemption](ctx, s.svc, call{
		method: http.MethodPost,
		path:   couponPath(code) + "/redeem",
		body:   req,
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
	return r, withResource(err, "coupon", code)
}

// Delete deactivates a coupon.
func (s *couponService) Delete(ctx context.Context, code string, opts ...RequestOption) error {
	if err := requireID("coupon code", code); err != nil {
		return err
	}

	_, err := s.svc.do(ctx, call{
		method: http.MethodDelete,
		path:   couponPath(code),
		valid:  []int{http.StatusNoContent},
	}, opts)
	return withResource(err, "coupon", code)
}
