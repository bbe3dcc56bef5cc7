package recurly_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-recurly"
)

func TestInvoiceService_Get(t *testing.T) {
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/invoices/1005", r.URL.Path)
		writeXML(t, w, http.StatusOK, fixture(t, "invoice.xml"))
	})

	inv, err := client.Invoices.Get(context.Background(), "1005")
	require.NoError(t, err)

	assert.Equal(t, "421f7b7d414e4c6792938e7c49d552e9", inv.UUID)
	assert.Equal(t, "open", inv.State)
	assert.Equal(t, 1005, inv.InvoiceNumber)
	assert.Equal(t, "1005", inv.Number())
	assert.Equal(t, 1200, inv.TotalInCents)
	assert.Equal(t, "manual", inv.CollectionMethod)
	assert.Equal(t, "1", inv.AccountCode())
	assert.Contains(t, inv.Links, "subscription")

	require.Len(t, inv.LineItems, 1)
	item := inv.LineItems[0]
	assert.Equal(t, "626db120a84102b1809909071c701c60", item.UUID)
	assert.Equal(t, "https://api.recurly.com/v2/adjustments/626db120a84102b1809909071c701c60", item.Href)
	assert.Equal(t, "Charge for extra bandwidth", item.Description)
	assert.Equal(t, 1200, item.UnitAmountInCents)
	assert.True(t, item.EndDate.IsZero())

	assert.Empty(t, inv.Transactions)

	assert.Len(t, inv.Actions, 3)
}

func TestInvoice_Number(t *testing.T) {
	assert.Equal(t, "GB1005", (&recurly.Invoice{InvoiceNumber: 1005, InvoiceNumberPrefix: "GB"}).Number())
	assert.Empty(t, (&recurly.Invoice{InvoiceNumberPrefix: "GB"}).Number())
}

func TestInvoiceService_PDF(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/invoices/1005", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(pdf)
	})

	got, err := client.Invoices.PDF(context.Background(), "1005")
	require.NoError(t, err)
	assert.Equal(t, pdf, got)
}

func TestInvoiceService_Refund(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to credit first", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v2/invoices/1005/refund", r.URL.Path)

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Contains(t, string(body), "<invoice><refund_method>credit_first</refund_method></invoice>")

			writeXML(t, w, http.StatusCreated, fixture(t, "invoice.xml"))
		})

		_, err := client.Invoices.Refund(ctx, &recurly.Invoice{InvoiceNumber: 1005}, nil)
		require.NoError(t, err)
	})

	t.Run("partial refund to the original payment method", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Contains(t, string(body),
				"<invoice><amount_in_cents>500</amount_in_cents><refund_method>transaction_first</refund_method></invoice>")
			writeXML(t, w, http.StatusCreated, fixture(t, "invoice.xml"))
		})

		_, err := client.Invoices.Refund(ctx, &recurly.Invoice{InvoiceNumber: 1005}, &recurly.InvoiceRefundRequest{
			AmountInCents: 500,
			RefundMethod:  "transaction_first",
		})
		require.NoError(t, err)
	})

	t.Run("follows the advertised link", func(t *testing.T) {
		var posted string
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				posted = r.URL.Path
			}
			writeXML(t, w, http.StatusCreated, fixture(t, "invoice.xml"))
		})

		inv := &recurly.Invoice{
			Resource: recurly.Resource{Actions: map[string]recurly.Action{
				"refund": {Name: "refund", Href: client.BaseURL() + "/invoices/GB1005/refund", Method: http.MethodPost},
			}},
		}
		_, err := client.Invoices.Refund(ctx, inv, nil)
		require.NoError(t, err)
		assert.Equal(t, "/v2/invoices/GB1005/refund", posted)
	})

	t.Run("invoice without number", func(t *testing.T) {
		client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.Invoices.Refund(ctx, &recurly.Invoice{}, nil)
		var validation *recurly.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "cannot refund an invoice without an invoice number", validation.Message)

		_, err = client.Invoices.Refund(ctx, nil, nil)
		require.ErrorAs(t, err, &validation)
	})
}

func TestInvoiceService_Mark(t *testing.T) {
	ctx := context.Background()

	var calls []string
	client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		writeXML(t, w, http.StatusOK, fixture(t, "invoice.xml"))
	})

	inv := &recurly.Invoice{InvoiceNumber: 1005}
	_, err := client.Invoices.MarkSuccessful(ctx, inv)
	require.NoError(t, err)
	_, err = client.Invoices.MarkFailed(ctx, inv)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"PUT /v2/invoices/1005/mark_successful",
		"PUT /v2/invoices/1005/mark_failed",
	}, calls)

	_, err = client.Invoices.MarkFailed(ctx, &recurly.Invoice{})
	var validation *recurly.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "cannot mark failed an invoice without an invoice number", validation.Message)
}
