package recurly

import (
	"context"
	"iter"
	"net/http"
)

const plansPath = "plans"

// PlanService provides operations on subscription plans.
type PlanService interface {
	// Iterator returns a pager over plans matching filter.
	Iterator(filter Filter, opts ...RequestOption) *Pager[Plan]

	// List returns an iterator over all plans matching filter.
	List(ctx context.Context, filter Filter, opts ...RequestOption) iter.Seq2[*Plan, error]

	// All returns every plan matching filter keyed by plan code.
	All(ctx context.Context, filter Filter, opts ...RequestOption) (map[string]*Plan, error)

	// Count returns the number of plans matching filter.
	Count(ctx context.Context, filter Filter, opts ...RequestOption) (int, error)

	// Get retrieves a single plan by code.
	Get(ctx context.Context, code string, opts ...RequestOption) (*Plan, error)

	// Create creates a new plan.
	Create(ctx context.Context, req *PlanRequest, opts ...RequestOption) (*Plan, error)

	// Update modifies an existing plan.
	Update(ctx context.Context, code string, req *PlanRequest, opts ...RequestOption) (*Plan, error)

	// Delete removes a plan, expiring its subscriptions.
	Delete(ctx context.Context, code string, opts ...RequestOption) error

	// ListAddOns returns an iterator over the plan's add-ons.
	ListAddOns(ctx context.Context, code string, opts ...RequestOption) iter.Seq2[*AddOn, error]

	// AddOns returns the plan's add-ons keyed by add-on code.
	AddOns(ctx context.Context, code string, opts ...RequestOption) (map[string]*AddOn, error)
}

// planService implements PlanService.
type planService struct {
	collection[Plan, *Plan]
}

func newPlanService(svc *service) *planService {
	return &planService{
		collection: collection[Plan, *Plan]{svc: svc, path: plansPath},
	}
}

func planPath(code string) string {
	return plansPath + "/" + escape(code)
}

// validatePlanRequest validates the create plan request.
func validatePlanRequest(req *PlanRequest) error {
	if req == nil {
		return validationError("plan request cannot be nil")
	}
	if req.PlanCode == "" {
		return validationError("plan code is required")
	}
	if req.Name == "" {
		return validationError("plan name is required")
	}
	if len(req.UnitAmountInCents) == 0 {
		return validationError("plan unit amount is required")
	}
	return nil
}

// Get retrieves a single plan by code.
func (s *planService) Get(ctx context.Context, code string, opts ...RequestOption) (*Plan, error) {
	if err := requireID("plan code", code); err != nil {
		return nil, err
	}

	plan, err := fetch[Plan](ctx, s.svc, call{
		method: http.MethodGet,
		path:   planPath(code),
		valid:  []int{http.StatusOK},
	}, opts)
	return plan, withResource(err, "plan", code)
}

// Create creates a new plan.
func (s *planService) Create(ctx context.Context, req *PlanRequest, opts ...RequestOption) (*Plan, error) {
	if err := validatePlanRequest(req); err != nil {
		return nil, err
	}

	return fetch[Plan](ctx, s.svc, call{
		method: http.MethodPost,
		path:   plansPath,
		body:   req,
		valid:  []int{http.StatusCreated},
	}, opts)
}

// Update modifies an existing plan.
func (s *planService) Update(ctx context.Context, code string, req *PlanRequest, opts ...RequestOption) (*Plan, error) {
	if err := requireID("plan code", code); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, validationError("plan request cannot be nil")
	}

	plan, err := fetch[Plan](ctx, s.svc, call{
		method: http.MethodPut,
		path:   planPath(code),
		body:   req,
		valid:  []int{http.StatusOK},
	}, opts)
	return plan, withResource(err, "plan", code)
}

// Delete removes a plan.
func (s *planService) Delete(ctx context.Context, code string, opts ...RequestOption) error {
	if err := requireID("plan code", code); err != nil {
		return err
	}

	_, err := s.svc.do(ctx, call{
		method: http.MethodDelete,
		path:   planPath(code),
		valid:  []int{http.StatusNoContent},
	}, opts)
	return withResource(err, "plan", code)
}

// ListAddOns returns an iterator over the plan's add-ons.
func (s *planService) ListAddOns(ctx context.Context, code string, opts ...RequestOption) iter.Seq2[*AddOn, error] {
	if err := requireID("plan code", code); err != nil {
		return failed[*AddOn](err)
	}
	return listAt[AddOn](ctx, s.svc, planPath(code)+"/add_ons", opts)
}

// AddOns returns the plan's add-ons keyed by add-on code.
func (s *planService) AddOns(ctx context.Context, code string, opts ...RequestOption) (map[string]*AddOn, error) {
	return Index(s.ListAddOns(ctx, code, opts...), func(a *AddOn) string {
		return a.AddOnCode
	})
}
