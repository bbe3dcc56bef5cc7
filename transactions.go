package recurly

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

const transactionsPath = "transactions"

// TransactionService provides operations on transactions.
type TransactionService interface {
	// Iterator returns a pager over transactions matching filter.
	Iterator(filter Filter, opts ...RequestOption) *Pager[Transaction]

	// List returns an iterator over all transactions matching filter.
	List(ctx context.Context, filter Filter, opts ...RequestOption) iter.Seq2[*Transaction, error]

	// All returns every transaction matching filter keyed by UUID.
	All(ctx context.Context, filter Filter, opts ...RequestOption) (map[string]*Transaction, error)

	// Count returns the number of transactions matching filter.
	Count(ctx context.Context, filter Filter, opts ...RequestOption) (int, error)

	// Get retrieves a single transaction by UUID.
	Get(ctx context.Context, uuid string, opts ...RequestOption) (*Transaction, error)

	// Create charges an account once.
	Create(ctx context.Context, req *TransactionRequest, opts ...RequestOption) (*Transaction, error)

	// Refund refunds or voids a transaction. An amount of zero refunds
	// the whole transaction.
	Refund(ctx context.Context, txn *Transaction, amountInCents int, opts ...RequestOption) (*Transaction, error)
}

// transactionService implements TransactionService.
type transactionService struct {
	collection[Transaction, *Transaction]
}

func newTransactionService(svc *service) *transactionService {
	return &transactionService{
		collection: collection[Transaction, *Transaction]{svc: svc, path: transactionsPath},
	}
}

func transactionPath(uuid string) string {
	return transactionsPath + "/" + escape(uuid)
}

// validateTransactionRequest validates the create transaction request.
func validateTransactionRequest(req *TransactionRequest) error {
	if req == nil {
		return validationError("transaction request cannot be nil")
	}
	if req.Account == nil {
		return validationError("transaction account is required")
	}
	if req.Account.AccountCode == "" {
		return validationError("transaction account code is required")
	}
	if req.AmountInCents <= 0 {
		return validationError("transaction amount must be positive")
	}
	if req.Currency == "" {
		return validationError("transaction currency is required")
	}
	return nil
}

// Get retrieves a single transaction by UUID.
func (s *transactionService) Get(ctx context.Context, uuid string, opts ...RequestOption) (*Transaction, error) {
	if err := requireID("transaction UUID", uuid); err != nil {
		return nil, err
	}

	txn, err := fetch[Transaction](ctx, s.svc, call{
		method: http.MethodGet,
		path:   transactionPath(uuid),
		valid:  []int{http.StatusOK},
	}, opts)
	return txn, withResource(err, "transaction", uuid)
}

// Create charges an account once.
func (s *transactionService) Create(ctx context.Context, req *TransactionRequest, opts ...RequestOption) (*Transaction, error) {
	if err := validateTransactionRequest(req); err != nil {
		return nil, err
	}

	return fetch[Transaction](ctx, s.svc, call{
		method: http.MethodPost,
		path:   transactionsPath,
		body:   req,
		valid:  []int{http.StatusOK, http.StatusCreated},
	}, opts)
}

// Refund refunds or voids a transaction.
func (s *transactionService) Refund(ctx context.Context, txn *Transaction, amountInCents int, opts ...RequestOption) (*Transaction, error) {
	if txn == nil {
		return nil, validationError("transaction cannot be nil")
	}
	if err := requireID("transaction UUID", txn.UUID); err != nil {
		return nil, err
	}
	if amountInCents < 0 {
		return nil, validationError("refund amount cannot be negative")
	}

	path := txn.Href
	if path == "" {
		path = transactionPath(txn.UUID)
	}
	path = txn.actionHref("refund", path)

	var query url.Values
	if amountInCents > 0 {
		query = url.Values{"amount_in_cents": {strconv.Itoa(amountInCents)}}
	}

	resp, err := s.svc.do(ctx, call{
		method: http.MethodDelete,
		path:   path,
		query:  query,
		valid:  []int{http.StatusAccepted},
	}, opts)
	if err != nil {
		return nil, withResource(err, "transaction", txn.UUID)
	}
	if len(resp.Body) == 0 {
		return txn, nil
	}
	return decodeRecord[Transaction](resp.Body, s.svc.logger)
}
