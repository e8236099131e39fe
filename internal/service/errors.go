package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidAmount        = "invalid_amount"
	ErrCodeInvalidCurrency      = "invalid_currency"
	ErrCodeInvalidProvider      = "invalid_provider"
	ErrCodeGatewayUnavailable   = "gateway_unavailable"
	ErrCodeGatewayRejected      = "gateway_rejected"
	ErrCodeGatewayMisconfigured = "gateway_misconfigured"
	ErrCodeForbidden            = "forbidden"
	ErrCodeNotFound             = "transaction_not_found"
	ErrCodeIllegalTransition    = "illegal_transition"
	ErrCodeInternalError        = "internal_error"
)
