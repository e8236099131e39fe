package gateway

import (
	"errors"
	"fmt"

	"github.com/atlasmarket/payments/internal/models"
)

// ErrorKind classifies gateway failures by what the caller may do next.
type ErrorKind string

const (
	// KindUnavailable covers network failures, timeouts and provider 5xx:
	// the outcome is unknown and the caller may retry with a fresh
	// idempotency key.
	KindUnavailable ErrorKind = "unavailable"

	// KindRejected covers provider 4xx: the request itself was refused
	// and must not be retried unchanged.
	KindRejected ErrorKind = "rejected"

	// KindMisconfigured covers missing credentials. Not retryable.
	KindMisconfigured ErrorKind = "misconfigured"
)

// Error is a typed gateway failure so callers can distinguish retryable
// from non-retryable without string matching.
type Error struct {
	Err      error
	Message  string
	Kind     ErrorKind
	Provider models.PaymentProvider
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s gateway %s: %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s gateway %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrVerificationFailed is returned for every webhook authentication
// failure. It is deliberately uniform across "bad signature", "malformed
// signature header" and "unknown provider" so the endpoint leaks nothing
// an attacker could use to probe the secret.
var ErrVerificationFailed = errors.New("webhook verification failed")

// ErrIgnoredEvent marks an authenticated webhook delivery whose event
// type this subsystem does not act on. The endpoint still acknowledges it.
var ErrIgnoredEvent = errors.New("event type not handled")

func unavailable(p models.PaymentProvider, msg string, err error) *Error {
	return &Error{Provider: p, Kind: KindUnavailable, Message: msg, Err: err}
}

func rejected(p models.PaymentProvider, msg string) *Error {
	return &Error{Provider: p, Kind: KindRejected, Message: msg}
}

func misconfigured(p models.PaymentProvider, msg string) *Error {
	return &Error{Provider: p, Kind: KindMisconfigured, Message: msg}
}
