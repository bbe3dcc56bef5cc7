package recurly

import (
	"encoding/xml"
	"maps"
	"slices"
	"strconv"
	"time"
)

// AccountState represents the state of an account.
type AccountState string

const (
	AccountActive AccountState = "active"
	AccountClosed AccountState = "closed"
)

// SubscriptionState represents the state of a subscription.
type SubscriptionState string

const (
	SubscriptionActive   SubscriptionState = "active"
	SubscriptionCanceled SubscriptionState = "canceled"
	SubscriptionExpired  SubscriptionState = "expired"
	SubscriptionFuture   SubscriptionState = "future"
	SubscriptionInTrial  SubscriptionState = "in_trial"
	SubscriptionLive     SubscriptionState = "live"
)

// RefundType selects how much of the current period is refunded when a
// subscription is terminated.
type RefundType string

const (
	RefundFull    RefundType = "full"
	RefundPartial RefundType = "partial"
	RefundNone    RefundType = "none"
)

func (r RefundType) valid() bool {
	switch r {
	case RefundFull, RefundPartial, RefundNone:
		return true
	default:
		return false
	}
}

// Timeframe selects when a subscription change takes effect.
type Timeframe string

const (
	TimeframeNow      Timeframe = "now"
	TimeframeRenewal  Timeframe = "renewal"
	TimeframeBillDate Timeframe = "bill_date"
)

// DiscountType is the kind of discount a coupon grants.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountDollars DiscountType = "dollars"
)

// Money holds amounts in cents keyed by ISO 4217 currency code, as in
// <unit_amount_in_cents><USD>1000</USD><EUR>800</EUR></unit_amount_in_cents>.
type Money map[string]int

// MarshalXML implements xml.Marshaler with currencies in sorted order.
func (m Money) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, currency := range slices.Sorted(maps.Keys(m)) {
		el := xml.StartElement{Name: xml.Name{Local: currency}}
		if err := e.EncodeElement(m[currency], el); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// Address is a postal address.
type Address struct {
	Address1 string `mapstructure:"address1" xml:"address1,omitempty"`
	Address2 string `mapstructure:"address2" xml:"address2,omitempty"`
	City     string `mapstructure:"city" xml:"city,omitempty"`
	State    string `mapstructure:"state" xml:"state,omitempty"`
	Zip      string `mapstructure:"zip" xml:"zip,omitempty"`
	Country  string `mapstructure:"country" xml:"country,omitempty"`
	Phone    string `mapstructure:"phone" xml:"phone,omitempty"`
}

// Account is a customer account.
type Account struct {
	Resource `mapstructure:",squash"`

	AccountCode      string       `mapstructure:"account_code"`
	State            AccountState `mapstructure:"state"`
	Username         string       `mapstructure:"username"`
	Email            string       `mapstructure:"email"`
	FirstName        string       `mapstructure:"first_name"`
	LastName         string       `mapstructure:"last_name"`
	CompanyName      string       `mapstructure:"company_name"`
	AcceptLanguage   string       `mapstructure:"accept_language"`
	HostedLoginToken string       `mapstructure:"hosted_login_token"`
	Address          Address      `mapstructure:"address"`
	TaxExempt        bool         `mapstructure:"tax_exempt"`
	CreatedAt        time.Time    `mapstructure:"created_at"`
	UpdatedAt        time.Time    `mapstructure:"updated_at"`
	ClosedAt         time.Time    `mapstructure:"closed_at"`
}

func (a *Account) key() string { return a.AccountCode }

// BillingInfo is the payment method stored on an account.
type BillingInfo struct {
	Resource `mapstructure:",squash"`

	Type              string `mapstructure:"type"`
	FirstName         string `mapstructure:"first_name"`
	LastName          string `mapstructure:"last_name"`
	Company           string `mapstructure:"company"`
	Address1          string `mapstructure:"address1"`
	Address2          string `mapstructure:"address2"`
	City              string `mapstructure:"city"`
	State             string `mapstructure:"state"`
	Zip               string `mapstructure:"zip"`
	Country           string `mapstructure:"country"`
	Phone             string `mapstructure:"phone"`
	VATNumber         string `mapstructure:"vat_number"`
	IPAddress         string `mapstructure:"ip_address"`
	CardType          string `mapstructure:"card_type"`
	FirstSix          string `mapstructure:"first_six"`
	LastFour          string `mapstructure:"last_four"`
	Month             int    `mapstructure:"month"`
	Year              int    `mapstructure:"year"`
	PaypalAgreementID string `mapstructure:"paypal_billing_agreement_id"`
}

// AccountCode returns the code of the account the billing info belongs to.
func (b *BillingInfo) AccountCode() string {
	return lastSegment(b.Links["account"])
}

func (b *BillingInfo) key() string { return b.AccountCode() }

// Plan is a subscription plan.
type Plan struct {
	Resource `mapstructure:",squash"`

	PlanCode            string    `mapstructure:"plan_code"`
	Name                string    `mapstructure:"name"`
	Description         string    `mapstructure:"description"`
	AccountingCode      string    `mapstructure:"accounting_code"`
	PlanIntervalLength  int       `mapstructure:"plan_interval_length"`
	PlanIntervalUnit    string    `mapstructure:"plan_interval_unit"`
	TrialIntervalLength int       `mapstructure:"trial_interval_length"`
	TrialIntervalUnit   string    `mapstructure:"trial_interval_unit"`
	TotalBillingCycles  int       `mapstructure:"total_billing_cycles"`
	TaxExempt           bool      `mapstructure:"tax_exempt"`
	DisplayQuantity     bool      `mapstructure:"display_quantity"`
	UnitAmountInCents   Money     `mapstructure:"unit_amount_in_cents"`
	SetupFeeInCents     Money     `mapstructure:"setup_fee_in_cents"`
	CreatedAt           time.Time `mapstructure:"created_at"`
	UpdatedAt           time.Time `mapstructure:"updated_at"`
}

func (p *Plan) key() string { return p.PlanCode }

// AddOn is an optional charge attached to a plan.
type AddOn struct {
	Resource `mapstructure:",squash"`

	AddOnCode                   string    `mapstructure:"add_on_code"`
	Name                        string    `mapstructure:"name"`
	AddOnType                   string    `mapstructure:"add_on_type"`
	UsageType                   string    `mapstructure:"usage_type"`
	MeasuredUnitID              int64     `mapstructure:"measured_unit_id"`
	DefaultQuantity             int       `mapstructure:"default_quantity"`
	DisplayQuantityOnHostedPage bool      `mapstructure:"display_quantity_on_hosted_page"`
	UnitAmountInCents           Money     `mapstructure:"unit_amount_in_cents"`
	UsagePercentage             float64   `mapstructure:"usage_percentage"`
	CreatedAt                   time.Time `mapstructure:"created_at"`
	UpdatedAt                   time.Time `mapstructure:"updated_at"`
}

// PlanCode returns the code of the plan the add-on belongs to.
func (a *AddOn) PlanCode() string {
	return lastSegment(a.Links["plan"])
}

func (a *AddOn) key() string { return a.AddOnCode }

// PlanRef is the plan summary embedded in a subscription.
type PlanRef struct {
	Href     string `mapstructure:"href"`
	PlanCode string `mapstructure:"plan_code"`
	Name     string `mapstructure:"name"`
}

// SubscriptionAddOn is an add-on applied to a subscription.
type SubscriptionAddOn struct {
	AddOnCode         string  `mapstructure:"add_on_code"`
	AddOnType         string  `mapstructure:"add_on_type"`
	UsageType         string  `mapstructure:"usage_type"`
	Quantity          int     `mapstructure:"quantity"`
	UnitAmountInCents int     `mapstructure:"unit_amount_in_cents"`
	UsagePercentage   float64 `mapstructure:"usage_percentage"`
}

// Subscription is an account's subscription to a plan.
type Subscription struct {
	Resource `mapstructure:",squash"`

	UUID                   string              `mapstructure:"uuid"`
	State                  SubscriptionState   `mapstructure:"state"`
	Plan                   PlanRef             `mapstructure:"plan"`
	Currency               string              `mapstructure:"currency"`
	Quantity               int                 `mapstructure:"quantity"`
	UnitAmountInCents      int                 `mapstructure:"unit_amount_in_cents"`
	TaxInCents             int                 `mapstructure:"tax_in_cents"`
	TaxType                string              `mapstructure:"tax_type"`
	TaxRegion              string              `mapstructure:"tax_region"`
	TaxRate                float64             `mapstructure:"tax_rate"`
	CollectionMethod       string              `mapstructure:"collection_method"`
	NetTerms               int                 `mapstructure:"net_terms"`
	PONumber               string              `mapstructure:"po_number"`
	CustomerNotes          string              `mapstructure:"customer_notes"`
	TermsAndConditions     string              `mapstructure:"terms_and_conditions"`
	ActivatedAt            time.Time           `mapstructure:"activated_at"`
	CanceledAt             time.Time           `mapstructure:"canceled_at"`
	ExpiresAt              time.Time           `mapstructure:"expires_at"`
	CurrentPeriodStartedAt time.Time           `mapstructure:"current_period_started_at"`
	CurrentPeriodEndsAt    time.Time           `mapstructure:"current_period_ends_at"`
	TrialStartedAt         time.Time           `mapstructure:"trial_started_at"`
	TrialEndsAt            time.Time           `mapstructure:"trial_ends_at"`
	AddOns                 []SubscriptionAddOn `mapstructure:"subscription_add_ons"`
}

// AccountCode returns the code of the subscribed account, taken from the
// account link.
func (s *Subscription) AccountCode() string {
	return lastSegment(s.Links["account"])
}

func (s *Subscription) key() string { return s.UUID }

// Adjustment is a charge or credit line item.
type Adjustment struct {
	Resource `mapstructure:",squash"`

	UUID              string    `mapstructure:"uuid"`
	State             string    `mapstructure:"state"`
	Description       string    `mapstructure:"description"`
	AccountingCode    string    `mapstructure:"accounting_code"`
	Origin            string    `mapstructure:"origin"`
	Currency          string    `mapstructure:"currency"`
	Quantity          int       `mapstructure:"quantity"`
	UnitAmountInCents int       `mapstructure:"unit_amount_in_cents"`
	DiscountInCents   int       `mapstructure:"discount_in_cents"`
	TaxInCents        int       `mapstructure:"tax_in_cents"`
	TotalInCents      int       `mapstructure:"total_in_cents"`
	Taxable           bool      `mapstructure:"taxable"`
	StartDate         time.Time `mapstructure:"start_date"`
	EndDate           time.Time `mapstructure:"end_date"`
	CreatedAt         time.Time `mapstructure:"created_at"`
}

func (a *Adjustment) key() string { return a.UUID }

// Invoice is a bill sent to an account.
type Invoice struct {
	Resource `mapstructure:",squash"`

	UUID                string        `mapstructure:"uuid"`
	State               string        `mapstructure:"state"`
	InvoiceNumber       int           `mapstructure:"invoice_number"`
	InvoiceNumberPrefix string        `mapstructure:"invoice_number_prefix"`
	PONumber            string        `mapstructure:"po_number"`
	VATNumber           string        `mapstructure:"vat_number"`
	Currency            string        `mapstructure:"currency"`
	SubtotalInCents     int           `mapstructure:"subtotal_in_cents"`
	TaxInCents          int           `mapstructure:"tax_in_cents"`
	TotalInCents        int           `mapstructure:"total_in_cents"`
	BalanceInCents      int           `mapstructure:"balance_in_cents"`
	NetTerms            int           `mapstructure:"net_terms"`
	CollectionMethod    string        `mapstructure:"collection_method"`
	CreatedAt           time.Time     `mapstructure:"created_at"`
	ClosedAt            time.Time     `mapstructure:"closed_at"`
	LineItems           []Adjustment  `mapstructure:"line_items"`
	Transactions        []Transaction `mapstructure:"transactions"`
}

// Number returns the invoice number including its prefix.
func (i *Invoice) Number() string {
	if i.InvoiceNumber == 0 {
		return ""
	}
	return i.InvoiceNumberPrefix + strconv.Itoa(i.InvoiceNumber)
}

// AccountCode returns the code of the invoiced account.
func (i *Invoice) AccountCode() string {
	return lastSegment(i.Links["account"])
}

func (i *Invoice) key() string { return i.Number() }

// Transaction is a payment, refund or verification.
type Transaction struct {
	Resource `mapstructure:",squash"`

	UUID            string    `mapstructure:"uuid"`
	Action          string    `mapstructure:"action"`
	Status          string    `mapstructure:"status"`
	Source          string    `mapstructure:"source"`
	Reference       string    `mapstructure:"reference"`
	PaymentMethod   string    `mapstructure:"payment_method"`
	Currency        string    `mapstructure:"currency"`
	AmountInCents   int       `mapstructure:"amount_in_cents"`
	TaxInCents      int       `mapstructure:"tax_in_cents"`
	Test            bool      `mapstructure:"test"`
	Voidable        bool      `mapstructure:"voidable"`
	Refundable      bool      `mapstructure:"refundable"`
	Recurring       bool      `mapstructure:"recurring"`
	IPAddress       string    `mapstructure:"ip_address"`
	CVVResult       string    `mapstructure:"cvv_result"`
	AVSResult       string    `mapstructure:"avs_result"`
	AVSResultStreet string    `mapstructure:"avs_result_street"`
	AVSResultPostal string    `mapstructure:"avs_result_postal"`
	CreatedAt       time.Time `mapstructure:"created_at"`
}

// AccountCode returns the code of the account the transaction belongs to.
func (t *Transaction) AccountCode() string {
	return lastSegment(t.Links["account"])
}

func (t *Transaction) key() string { return t.UUID }

// Coupon is a discount code.
type Coupon struct {
	Resource `mapstructure:",squash"`

	CouponCode        string       `mapstructure:"coupon_code"`
	Name              string       `mapstructure:"name"`
	State             string       `mapstructure:"state"`
	Description       string       `mapstructure:"description"`
	DiscountType      DiscountType `mapstructure:"discount_type"`
	DiscountPercent   int          `mapstructure:"discount_percent"`
	DiscountInCents   Money        `mapstructure:"discount_in_cents"`
	SingleUse         bool         `mapstructure:"single_use"`
	AppliesForMonths  int          `mapstructure:"applies_for_months"`
	AppliesToAllPlans bool         `mapstructure:"applies_to_all_plans"`
	MaxRedemptions    int          `mapstructure:"max_redemptions"`
	PlanCodes         []string     `mapstructure:"plan_codes"`
	RedeemByDate      time.Time    `mapstructure:"redeem_by_date"`
	CreatedAt         time.Time    `mapstructure:"created_at"`
}

func (c *Coupon) key() string { return c.CouponCode }

// Redemption records a coupon applied to an account.
type Redemption struct {
	Resource `mapstructure:",squash"`

	UUID                   string    `mapstructure:"uuid"`
	State                  string    `mapstructure:"state"`
	Currency               string    `mapstructure:"currency"`
	SingleUse              bool      `mapstructure:"single_use"`
	TotalDiscountedInCents int       `mapstructure:"total_discounted_in_cents"`
	CreatedAt              time.Time `mapstructure:"created_at"`
}

// AccountCode returns the code of the account that redeemed the coupon.
func (r *Redemption) AccountCode() string {
	return lastSegment(r.Links["account"])
}

// CouponCode returns the code of the redeemed coupon.
func (r *Redemption) CouponCode() string {
	return lastSegment(r.Links["coupon"])
}

func (r *Redemption) key() string { return r.UUID }

// Usage is a usage record reported against a usage-based add-on.
type Usage struct {
	Resource `mapstructure:",squash"`

	ID                 int64     `mapstructure:"id"`
	MeasuredUnit       string    `mapstructure:"measured_unit"`
	Amount             int       `mapstructure:"amount"`
	MerchantTag        string    `mapstructure:"merchant_tag"`
	UsageType          string    `mapstructure:"usage_type"`
	UnitAmountInCents  int       `mapstructure:"unit_amount_in_cents"`
	UsagePercentage    float64   `mapstructure:"usage_percentage"`
	RecordingTimestamp time.Time `mapstructure:"recording_timestamp"`
	UsageTimestamp     time.Time `mapstructure:"usage_timestamp"`
	CreatedAt          time.Time `mapstructure:"created_at"`
	UpdatedAt          time.Time `mapstructure:"updated_at"`
	BilledAt           time.Time `mapstructure:"billed_at"`
}

// UnitAmount returns the per-unit price in cents. Percentage-priced usage
// has no unit amount of its own; its price is the given share of Amount,
// rounded to the nearest cent.
func (u *Usage) UnitAmount() int {
	if u.UnitAmountInCents != 0 {
		return u.UnitAmountInCents
	}
	if u.UsagePercentage == 0 {
		return 0
	}
	cents := float64(u.Amount) * u.UsagePercentage / 100
	if cents < 0 {
		return int(cents - 0.5)
	}
	return int(cents + 0.5)
}

// SubscriptionUUID returns the subscription the usage was reported for.
func (u *Usage) SubscriptionUUID() string {
	if href, ok := u.Links["subscription"]; ok {
		return lastSegment(href)
	}
	return ""
}

func (u *Usage) key() string { return strconv.FormatInt(u.ID, 10) }
