package recurly

import (
	"context"
	"errors"
	"iter"
	"net/http"
)

const accountsPath = "accounts"

// AccountService provides operations on Recurly accounts.
type AccountService interface {
	// Iterator returns a pager over accounts matching filter.
	Iterator(filter Filter, opts ...RequestOption) *Pager[Account]

	// List returns an iterator over all accounts matching filter.
	// The iterator fetches pages lazily as you iterate.
	List(ctx context.Context, filter Filter, opts ...RequestOption) iter.Seq2[*Account, error]

	// All returns every account matching filter keyed by account code.
	All(ctx context.Context, filter Filter, opts ...RequestOption) (map[string]*Account, error)

	// Count returns the number of accounts matching filter.
	Count(ctx context.Context, filter Filter, opts ...RequestOption) (int, error)

	// Get retrieves a single account by code.
	Get(ctx context.Context, code string, opts ...RequestOption) (*Account, error)

	// Create creates a new account. When an account with the same code
	// exists but is closed, it is reopened instead.
	Create(ctx context.Context, req *AccountRequest, opts ...RequestOption) (*Account, error)

	// Update modifies an existing account.
	Update(ctx context.Context, code string, req *AccountRequest, opts ...RequestOption) (*Account, error)

	// Close closes an account, canceling its active subscriptions.
	Close(ctx context.Context, code string, opts ...RequestOption) error

	// Reopen reopens a closed account.
	Reopen(ctx context.Context, code string, opts ...RequestOption) (*Account, error)

	// ListTransactions returns an iterator over the account's transactions.
	ListTransactions(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Transaction, error]

	// ListSubscriptions returns an iterator over the account's subscriptions.
	ListSubscriptions(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Subscription, error]

	// ListInvoices returns an iterator over the account's invoices.
	ListInvoices(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Invoice, error]

	// ListAdjustments returns an iterator over the account's adjustments.
	ListAdjustments(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Adjustment, error]

	// CreateAdjustment adds a charge or credit to the account.
	CreateAdjustment(ctx context.Context, code string, req *AdjustmentRequest, opts ...RequestOption) (*Adjustment, error)

	// CreateInvoice invoices the account's pending charges.
	CreateInvoice(ctx context.Context, code string, opts ...RequestOption) (*Invoice, error)
}

// accountService implements AccountService.
type accountService struct {
	collection[Account, *Account]
}

func newAccountService(svc *service) *accountService {
	return &accountService{
		collection: collection[Account, *Account]{svc: svc, path: accountsPath},
	}
}

func accountPath(code string) string {
	return accountsPath + "/" + escape(code)
}

// validateAccountRequest validates the create account request.
func validateAccountRequest(req *AccountRequest) error {
	if req == nil {
		return validationError("account request cannot be nil")
	}
	if req.AccountCode == "" {
		return validationError("account code is required")
	}
	return nil
}

// Get retrieves a single account by code.
func (s *accountService) Get(ctx context.Context, code string, opts ...RequestOption) (*Account, error) {
	if err := requireID("account code", code); err != nil {
		return nil, err
	}

	account, err := fetch[Account](ctx, s.svc, call{
		method: http.MethodGet,
		path:   accountPath(code),
		valid:  []int{http.StatusOK},
	}, opts)
	return account, withResource(err, "account", code)
}

// Create creates a new account.
func (s *accountService) Create(ctx context.Context, req *AccountRequest, opts ...RequestOption) (*Account, error) {
	if err := validateAccountRequest(req); err != nil {
		return nil, err
	}

	account, err := fetch[Account](ctx, s.svc, call{
		method: http.MethodPost,
		path:   accountsPath,
		body:   req,
		valid:  []int{http.StatusCreated},
	}, opts)

	// A closed account keeps its code; creating it again is reported as
	// taken and the account has to be reopened.
	var validation *ValidationError
	if errors.As(err, &validation) && validation.HasField("account.account_code", "taken") {
		s.svc.logger.DebugContext(ctx, "account code taken, reopening", "account_code", req.AccountCode)
		return s.Reopen(ctx, req.AccountCode, opts...)
	}
	return account, err
}

// Update modifies an existing account.
func (s *accountService) Update(ctx context.Context, code string, req *AccountRequest, opts ...RequestOption) (*Account, error) {
	if err := requireID("account code", code); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, validationError("account request cannot be nil")
	}

	account, err := fetch[Account](ctx, s.svc, call{
		method: http.MethodPut,
		path:   accountPath(code),
		body:   req,
		valid:  []int{http.StatusOK},
	}, opts)
	return account, withResource(err, "account", code)
}

// Close closes an account.
func (s *accountService) Close(ctx context.Context, code string, opts ...RequestOption) error {
	if err := requireID("account code", code); err != nil {
		return err
	}

	_, err := s.svc.do(ctx, call{
		method: http.MethodDelete,
		path:   accountPath(code),
		valid:  []int{http.StatusNoContent},
	}, opts)
	return withResource(err, "account", code)
}

// Reopen reopens a closed account.
func (s *accountService) Reopen(ctx context.Context, code string, opts ...RequestOption) (*Account, error) {
	if err := requireID("account code", code); err != nil {
		return nil, err
	}

	account, err := fetch[Account](ctx, s.svc, call{
		method: http.MethodPut,
		path:   accountPath(code) + "/reopen",
		valid:  []int{http.StatusOK},
	}, opts)
	return account, withResource(err, "account", code)
}

func (s *accountService) ListTransactions(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Transaction, error] {
	href, err := s.related(account, "transactions")
	if err != nil {
		return failed[*Transaction](err)
	}
	return listAt[Transaction](ctx, s.svc, href, opts)
}

func (s *accountService) ListSubscriptions(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Subscription, error] {
	href, err := s.related(account, "subscriptions")
	if err != nil {
		return failed[*Subscription](err)
	}
	return listAt[Subscription](ctx, s.svc, href, opts)
}

func (s *accountService) ListInvoices(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Invoice, error] {
	href, err := s.related(account, "invoices")
	if err != nil {
		return failed[*Invoice](err)
	}
	return listAt[Invoice](ctx, s.svc, href, opts)
}

func (s *accountService) ListAdjustments(ctx context.Context, account *Account, opts ...RequestOption) iter.Seq2[*Adjustment, error] {
	href, err := s.related(account, "adjustments")
	if err != nil {
		return failed[*Adjustment](err)
	}
	return listAt[Adjustment](ctx, s.svc, href, opts)
}

// related returns the URL of one of the account's collections, preferring
// the link the account itself advertised.
func (s *accountService) related(account *Account, name string) (string, error) {
	if account == nil {
		return "", validationError("account cannot be nil")
	}
	if _, ok := account.Links[name]; !ok {
		if err := requireID("account code", account.AccountCode); err != nil {
			return "", err
		}
	}
	return relatedPath(&account.Resource, name, accountPath(account.AccountCode)), nil
}

// CreateAdjustment adds a charge or credit to the account.
func (s *accountService) CreateAdjustment(ctx context.Context, code string, req *AdjustmentRequest, opts ...RequestOption) (*Adjustment, error) {
	if err := requireID("account code", code); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, validationError("adjustment request cannot be nil")
	}
	if req.Currency == "" {
		return nil, validationError("adjustment currency is required")
	}

	adj, err := fetch[Adjustment](ctx, s.svc, call{
		method: http.MethodPost,
		path:   accountPath(code) + "/adjustments",
		body:   req,
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
	return adj, withResource(err, "account", code)
}

// CreateInvoice invoices the account's pending charges.
func (s *accountService) CreateInvoice(ctx context.Context, code string, opts ...RequestOption) (*Invoice, error) {
	if err := requireID("account code", code); err != nil {
		return nil, err
	}

	inv, err := fetch[Invoice](ctx, s.svc, call{
		method: http.MethodPost,
		path:   accountPath(code) + "/invoices",
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
	return inv, withResource(err, "account", code)
}
