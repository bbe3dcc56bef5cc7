package recurly

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/go-recurly/internal/api"
	"github.com/tphakala/go-recurly/internal/typedxml"
)

// Sentinel errors for common failure modes.
var (
	ErrNoAPIKey  = errors.New("recurly: no API key configured")
	ErrNoBaseURL = errors.New("recurly: no base URL configured")
)

// FieldError is one entry of an <errors> payload.
type FieldError struct {
	Field   string
	Symbol  string
	Message string
}

func (f FieldError) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + " " + f.Message
}

// APIError represents a general Recurly API error.
type APIError struct {
	StatusCode int
	Symbol     string
	Message    string
	RequestID  string
	Errors     []FieldError
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("recurly: API error %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("recurly: API error %d: %s", e.StatusCode, e.Message)
}

// AuthenticationError indicates authentication failure (401/403).
type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("recurly: authentication failed: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *AuthenticationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// NotFoundError indicates the requested resource was not found (404).
type NotFoundError struct {
	APIError
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	if e.ResourceType != "" && e.ResourceID != "" {
		return fmt.Sprintf("recurly: %s not found: %s", e.ResourceType, e.ResourceID)
	}
	return fmt.Sprintf("recurly: resource not found: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *NotFoundError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ValidationError indicates invalid request data (400/422). Client-side
// checks return it too, with a zero StatusCode.
type ValidationError struct {
	APIError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) > 1 {
		parts := make([]string, len(e.Errors))
		for i, f := range e.Errors {
			parts[i] = f.String()
		}
		return fmt.Sprintf("recurly: validation error: %s (%s)", e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("recurly: validation error: %s", e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ValidationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// HasField reports whether the server rejected field with symbol.
func (e *ValidationError) HasField(field, symbol string) bool {
	return slices.ContainsFunc(e.Errors, func(f FieldError) bool {
		return f.Field == field && f.Symbol == symbol
	})
}

// TransactionError reports a declined or failed payment.
type TransactionError struct {
	APIError
	ErrorCode        string
	ErrorCategory    string
	MerchantMessage  string
	CustomerMessage  string
	GatewayErrorCode string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("recurly: transaction failed (%s): %s", e.ErrorCode, e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *TransactionError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// RateLimitError indicates the API rate limit was exceeded (429).
type RateLimitError struct {
	APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("recurly: rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "recurly: rate limit exceeded"
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *RateLimitError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ServerError indicates an internal server error (5xx).
type ServerError struct {
	APIError
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("recurly: server error %d: %s", e.StatusCode, e.Message)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ServerError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// UnexpectedStatusError is returned for a status the operation does not
// accept and that no more specific error type covers.
type UnexpectedStatusError struct {
	APIError
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("recurly: unexpected status: %d", e.StatusCode)
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *UnexpectedStatusError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// checkResponse returns nil when resp carries one of the accepted statuses
// and the matching typed error otherwise.
func checkResponse(resp *api.Response, valid ...int) error {
	if slices.Contains(valid, resp.StatusCode) {
		return nil
	}
	return parseError(resp.StatusCode, resp.Body, resp.Headers)
}

// parseError converts an HTTP response into the appropriate error type.
func parseError(statusCode int, body []byte, headers http.Header) error {
	base := APIError{
		StatusCode: statusCode,
		RequestID:  headers.Get("X-Request-Id"),
	}

	var txn map[string]any
	if len(body) > 0 {
		result, err := typedxml.Unmarshal(body)
		if err != nil {
			// Fallback to raw body if not valid XML
			base.Message = strings.TrimSpace(string(body))
		} else {
			txn = fillErrorDetails(&base, typedxml.Plain(result.Value))
		}
	}

	if txn != nil {
		return &TransactionError{
			APIError:         base,
			ErrorCode:        text(txn["error_code"]),
			ErrorCategory:    text(txn["error_category"]),
			MerchantMessage:  text(txn["merchant_message"]),
			CustomerMessage:  text(txn["customer_message"]),
			GatewayErrorCode: text(txn["gateway_error_code"]),
		}
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		if base.Message == "" {
			base.Message = "your API key is missing or invalid"
		}
		return &AuthenticationError{APIError: base}
	case statusCode == http.StatusNotFound:
		return &NotFoundError{APIError: base}
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return &ValidationError{APIError: base}
	case statusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			APIError:   base,
			RetryAfter: parseRetryAfter(headers.Get("Retry-After")),
		}
	case statusCode >= http.StatusInternalServerError:
		return &ServerError{APIError: base}
	default:
		return &UnexpectedStatusError{APIError: base}
	}
}

// fillErrorDetails reads the three error payload shapes the API uses:
//
//	<error><symbol>not_found</symbol><description>...</description></error>
//	<errors><error field="account.email" symbol="invalid_email">...</error></errors>
//	<errors><transaction_error>...</transaction_error><error ...>...</error></errors>
//
// It returns the transaction_error block when one is present.
func fillErrorDetails(base *APIError, payload any) map[string]any {
	switch p := payload.(type) {
	case string:
		base.Message = strings.TrimSpace(p)
		return nil
	case map[string]any:
		txn, _ := p["transaction_error"].(map[string]any)

		if symbol, ok := p["symbol"]; ok {
			fe := FieldError{
				Field:   text(p["field"]),
				Symbol:  text(symbol),
				Message: text(p["description"]),
			}
			if fe.Message == "" {
				fe.Message = text(p["message"])
			}
			base.Symbol = fe.Symbol
			base.Errors = []FieldError{fe}
			base.Message = fe.String()
			return txn
		}

		base.Errors = fieldErrors(p["error"])
		switch {
		case txn != nil:
			base.Message = text(txn["merchant_message"])
		case len(base.Errors) == 1:
			base.Message = base.Errors[0].String()
		case len(base.Errors) > 1:
			base.Message = fmt.Sprintf("%d validation errors", len(base.Errors))
		}
		if len(base.Errors) > 0 {
			base.Symbol = base.Errors[0].Symbol
		}
		return txn
	default:
		return nil
	}
}

func fieldErrors(v any) []FieldError {
	var items []any
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		items = t
	default:
		items = []any{t}
	}

	out := make([]FieldError, 0, len(items))
	for _, item := range items {
		switch e := item.(type) {
		case map[string]any:
			out = append(out, FieldError{
				Field:   text(e["field"]),
				Symbol:  text(e["symbol"]),
				Message: strings.TrimSpace(text(e[typedxml.TextKey])),
			})
		case string:
			out = append(out, FieldError{Message: strings.TrimSpace(e)})
		}
	}
	return out
}

// text returns the string content of a decoded value, looking inside
// elements that carried attributes.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return text(t[typedxml.TextKey])
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// parseRetryAfter parses the Retry-After header value.
// It handles both seconds (integer) and HTTP-date formats.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	// Try parsing as seconds first
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// Try parsing as HTTP-date (RFC 1123)
	if t, err := time.Parse(time.RFC1123, value); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
	}

	return 0
}

// validationError builds a client-side ValidationError.
func validationError(format string, args ...any) error {
	return &ValidationError{
		APIError: APIError{Message: fmt.Sprintf(format, args...)},
	}
}

// withResource names the missing resource on a NotFoundError.
func withResource(err error, resourceType, id string) error {
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		notFound.ResourceType = resourceType
		notFound.ResourceID = id
	}
	return err
}
