package recurly

import (
	"context"
	"iter"
	"net/http"
	"strings"
)

const invoicesPath = "invoices"

// InvoiceService provides operations on invoices.
type InvoiceService interface {
	// Iterator returns a pager over invoices matching filter.
	Iterator(filter Filter, opts ...RequestOption) *Pager[Invoice]

	// List returns an iterator over all invoices matching filter.
	List(ctx context.Context, filter Filter, opts ...RequestOption) iter.Seq2[*Invoice, error]

	// All returns every invoice matching filter keyed by invoice number.
	All(ctx context.Context, filter Filter, opts ...RequestOption) (map[string]*Invoice, error)

	// Count returns the number of invoices matching filter.
	Count(ctx context.Context, filter Filter, opts ...RequestOption) (int, error)

	// Get retrieves a single invoice by number.
	Get(ctx context.Context, number string, opts ...RequestOption) (*Invoice, error)

	// PDF downloads the invoice as a PDF document.
	PDF(ctx context.Context, number string, opts ...RequestOption) ([]byte, error)

	// Refund refunds an invoice, in full when req is nil.
	Refund(ctx context.Context, inv *Invoice, req *InvoiceRefundRequest, opts ...RequestOption) (*Invoice, error)

	// MarkSuccessful marks a manual invoice as paid.
	MarkSuccessful(ctx context.Context, inv *Invoice, opts ...RequestOption) (*Invoice, error)

	// MarkFailed marks a manual invoice as failed.
	MarkFailed(ctx context.Context, inv *Invoice, opts ...RequestOption) (*Invoice, error)
}

// invoiceService implements InvoiceService.
type invoiceService struct {
	collection[Invoice, *Invoice]
}

func newInvoiceService(svc *service) *invoiceService {
	return &invoiceService{
		collection: collection[Invoice, *Invoice]{svc: svc, path: invoicesPath},
	}
}

func invoicePath(number string) string {
	return invoicesPath + "/" + escape(number)
}

// Get retrieves a single invoice by number.
func (s *invoiceService) Get(ctx context.Context, number string, opts ...RequestOption) (*Invoice, error) {
	if err := requireID("invoice number", number); err != nil {
		return nil, err
	}

	inv, err := fetch[Invoice](ctx, s.svc, call{
		method: http.MethodGet,
		path:   invoicePath(number),
		valid:  []int{http.StatusOK},
	}, opts)
	return inv, withResource(err, "invoice", number)
}

// PDF downloads the invoice as a PDF document.
func (s *invoiceService) PDF(ctx context.Context, number string, opts ...RequestOption) ([]byte, error) {
	if err := requireID("invoice number", number); err != nil {
		return nil, err
	}

	opts = append(opts, WithHeader("Accept", "application/pdf"))
	resp, err := s.svc.do(ctx, call{
		method: http.MethodGet,
		path:   invoicePath(number),
		valid:  []int{http.StatusOK},
	}, opts)
	if err != nil {
		return nil, withResource(err, "invoice", number)
	}
	return resp.Body, nil
}

// Refund refunds an invoice.
func (s *invoiceService) Refund(ctx context.Context, inv *Invoice, req *InvoiceRefundRequest, opts ...RequestOption) (*Invoice, error) {
	path, err := invoiceAction(inv, "refund")
	if err != nil {
		return nil, err
	}

	body := &InvoiceRefundRequest{RefundMethod: defaultRefundMethod}
	if req != nil {
		body.AmountInCents = req.AmountInCents
		if req.RefundMethod != "" {
			body.RefundMethod = req.RefundMethod
		}
	}

	s.svc.logger.DebugContext(ctx, "refunding invoice",
		"invoice", inv.Number(), "amount_in_cents", body.AmountInCents, "refund_method", body.RefundMethod)

	return fetch[Invoice](ctx, s.svc, call{
		method: http.MethodPost,
		path:   path,
		body:   body,
		valid:  []int{http.StatusCreated},
	}, opts)
}

// MarkSuccessful marks a manual invoice as paid.
func (s *invoiceService) MarkSuccessful(ctx context.Context, inv *Invoice, opts ...RequestOption) (*Invoice, error) {
	path, err := invoiceAction(inv, "mark_successful")
	if err != nil {
		return nil, err
	}
	return fetch[Invoice](ctx, s.svc, call{
		method: http.MethodPut,
		path:   path,
		valid:  []int{http.StatusOK},
	}, opts)
}

// MarkFailed marks a manual invoice as failed.
func (s *invoiceService) MarkFailed(ctx context.Context, inv *Invoice, opts ...RequestOption) (*Invoice, error) {
	path, err := invoiceAction(inv, "mark_failed")
	if err != nil {
		return nil, err
	}
	return fetch[Invoice](ctx, s.svc, call{
		method: http.MethodPut,
		path:   path,
		valid:  []int{http.StatusOK},
	}, opts)
}

// invoiceAction returns the URL of a named invoice action: the advertised
// link, or the path built from the invoice number.
func invoiceAction(inv *Invoice, action string) (string, error) {
	if inv == nil {
		return "", validationError("invoice cannot be nil")
	}
	if a, ok := inv.ActionLink(action); ok && a.Href != "" {
		return a.Href, nil
	}
	number := inv.Number()
	if number == "" {
		return "", validationError("cannot %s an invoice without an invoice number", strings.ReplaceAll(action, "_", " "))
	}
	return invoicePath(number) + "/" + action, nil
}
