package recurly

import (
	"encoding/xml"
	"time"
)

// AccountRequest is the body for creating or updating an account.
type AccountRequest struct {
	XMLName xml.Name `xml:"account"`

	AccountCode    string              `xml:"account_code,omitempty"`
	Username       string              `xml:"username,omitempty"`
	Email          string              `xml:"email,omitempty"`
	FirstName      string              `xml:"first_name,omitempty"`
	LastName       string              `xml:"last_name,omitempty"`
	CompanyName    string              `xml:"company_name,omitempty"`
	AcceptLanguage string              `xml:"accept_language,omitempty"`
	Address        *Address            `xml:"address,omitempty"`
	BillingInfo    *BillingInfoRequest `xml:"billing_info,omitempty"`
}

// AccountRef identifies an account inside another request body.
type AccountRef struct {
	AccountCode string              `xml:"account_code"`
	Email       string              `xml:"email,omitempty"`
	FirstName   string              `xml:"first_name,omitempty"`
	LastName    string              `xml:"last_name,omitempty"`
	BillingInfo *BillingInfoRequest `xml:"billing_info,omitempty"`
}

// BillingInfoRequest is the body for storing a payment method. Either
// TokenID or the card fields must be set.
type BillingInfoRequest struct {
	XMLName xml.Name `xml:"billing_info"`

	TokenID           string `xml:"token_id,omitempty"`
	FirstName         string `xml:"first_name,omitempty"`
	LastName          string `xml:"last_name,omitempty"`
	Number            string `xml:"number,omitempty"`
	Month             int    `xml:"month,omitempty"`
	Year              int    `xml:"year,omitempty"`
	VerificationValue string `xml:"verification_value,omitempty"`
	Address1          string `xml:"address1,omitempty"`
	Address2          string `xml:"address2,omitempty"`
	City              string `xml:"city,omitempty"`
	State             string `xml:"state,omitempty"`
	Zip               string `xml:"zip,omitempty"`
	Country           string `xml:"country,omitempty"`
	Phone             string `xml:"phone,omitempty"`
	VATNumber         string `xml:"vat_number,omitempty"`
	IPAddress         string `xml:"ip_address,omitempty"`
}

// AdjustmentRequest is the body for a one-off charge or credit.
type AdjustmentRequest struct {
	XMLName xml.Name `xml:"adjustment"`

	Description       string `xml:"description,omitempty"`
	AccountingCode    string `xml:"accounting_code,omitempty"`
	Currency          string `xml:"currency"`
	UnitAmountInCents int    `xml:"unit_amount_in_cents"`
	Quantity          int    `xml:"quantity,omitempty"`
}

// PlanRequest is the body for creating or updating a plan.
type PlanRequest struct {
	XMLName xml.Name `xml:"plan"`

	PlanCode            string `xml:"plan_code,omitempty"`
	Name                string `xml:"name,omitempty"`
	Description         string `xml:"description,omitempty"`
	AccountingCode      string `xml:"accounting_code,omitempty"`
	PlanIntervalLength  int    `xml:"plan_interval_length,omitempty"`
	PlanIntervalUnit    string `xml:"plan_interval_unit,omitempty"`
	TrialIntervalLength int    `xml:"trial_interval_length,omitempty"`
	TrialIntervalUnit   string `xml:"trial_interval_unit,omitempty"`
	TotalBillingCycles  int    `xml:"total_billing_cycles,omitempty"`
	UnitAmountInCents   Money  `xml:"unit_amount_in_cents,omitempty"`
	SetupFeeInCents     Money  `xml:"setup_fee_in_cents,omitempty"`
}

// SubscriptionAddOnRequest selects an add-on for a new or changed
// subscription.
type SubscriptionAddOnRequest struct {
	XMLName xml.Name `xml:"subscription_add_on"`

	AddOnCode         string `xml:"add_on_code"`
	Quantity          int    `xml:"quantity,omitempty"`
	UnitAmountInCents int    `xml:"unit_amount_in_cents,omitempty"`
}

// SubscriptionAddOns is the add-on list of a subscription body. A nil
// pointer leaves the subscription's add-ons untouched; a non-nil empty list
// removes them all.
type SubscriptionAddOns struct {
	AddOns []SubscriptionAddOnRequest `xml:"subscription_add_on"`
}

// SubscriptionRequest is the body for creating a subscription.
type SubscriptionRequest struct {
	XMLName xml.Name `xml:"subscription"`

	PlanCode          string              `xml:"plan_code"`
	Currency          string              `xml:"currency"`
	Account           *AccountRef         `xml:"account"`
	Quantity          int                 `xml:"quantity,omitempty"`
	UnitAmountInCents int                 `xml:"unit_amount_in_cents,omitempty"`
	CouponCode        string              `xml:"coupon_code,omitempty"`
	StartsAt          *time.Time          `xml:"starts_at,omitempty"`
	TrialEndsAt       *time.Time          `xml:"trial_ends_at,omitempty"`
	CollectionMethod  string              `xml:"collection_method,omitempty"`
	NetTerms          int                 `xml:"net_terms,omitempty"`
	PONumber          string              `xml:"po_number,omitempty"`
	AddOns            *SubscriptionAddOns `xml:"subscription_add_ons,omitempty"`
}

// SubscriptionUpdateRequest is the body for changing a subscription.
type SubscriptionUpdateRequest struct {
	XMLName xml.Name `xml:"subscription"`

	Timeframe         Timeframe           `xml:"timeframe"`
	PlanCode          string              `xml:"plan_code,omitempty"`
	Quantity          int                 `xml:"quantity,omitempty"`
	UnitAmountInCents int                 `xml:"unit_amount_in_cents,omitempty"`
	CollectionMethod  string              `xml:"collection_method,omitempty"`
	NetTerms          int                 `xml:"net_terms,omitempty"`
	PONumber          string              `xml:"po_number,omitempty"`
	AddOns            *SubscriptionAddOns `xml:"subscription_add_ons,omitempty"`
}

// InvoiceRefundRequest is the body for refunding an invoice. An empty
// RefundMethod means credit_first.
type InvoiceRefundRequest struct {
	XMLName xml.Name `xml:"invoice"`

	AmountInCents int    `xml:"amount_in_cents,omitempty"`
	RefundMethod  string `xml:"refund_method,omitempty"`
}

const defaultRefundMethod = "credit_first"

// TransactionRequest is the body for a one-time transaction.
type TransactionRequest struct {
	XMLName xml.Name `xml:"transaction"`

	Account       *AccountRef `xml:"account"`
	AmountInCents int         `xml:"amount_in_cents"`
	Currency      string      `xml:"currency"`
	Description   string      `xml:"description,omitempty"`
}

// CouponRequest is the body for creating a coupon. AppliesToAllPlans
// defaults to true on the server; when it is set to false PlanCodes must
// list the eligible plans.
type CouponRequest struct {
	XMLName xml.Name `xml:"coupon"`

	CouponCode        string       `xml:"coupon_code"`
	Name              string       `xml:"name"`
	Description       string       `xml:"description,omitempty"`
	DiscountType      DiscountType `xml:"discount_type"`
	DiscountPercent   int          `xml:"discount_percent,omitempty"`
	DiscountInCents   Money        `xml:"discount_in_cents,omitempty"`
	SingleUse         bool         `xml:"single_use,omitempty"`
	AppliesForMonths  int          `xml:"applies_for_months,omitempty"`
	MaxRedemptions    int          `xml:"max_redemptions,omitempty"`
	RedeemByDate      *time.Time   `xml:"redeem_by_date,omitempty"`
	AppliesToAllPlans *bool        `xml:"applies_to_all_plans,omitempty"`
	PlanCodes         []string     `xml:"plan_codes>plan_code,omitempty"`
}

// RedemptionRequest is the body for redeeming a coupon on an account.
type RedemptionRequest struct {
	XMLName xml.Name `xml:"redemption"`

	AccountCode string `xml:"account_code"`
	Currency    string `xml:"currency"`
}

// UsageRequest is the body for reporting usage on a usage-based add-on.
type UsageRequest struct {
	XMLName xml.Name `xml:"usage"`

	Amount             int        `xml:"amount"`
	MerchantTag        string     `xml:"merchant_tag,omitempty"`
	RecordingTimestamp *time.Time `xml:"recording_timestamp,omitempty"`
	UsageTimestamp     *time.Time `xml:"usage_timestamp,omitempty"`
}
