// Package gateway abstracts the two external payment providers behind a
// single contract. Each implementation owns its provider's wire protocol
// for payment-intent creation and its webhook signing scheme; callers
// never branch on provider beyond selecting an implementation from the
// registry.
package gateway

import (
	"context"

	"github.com/atlasmarket/payments/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitiationRequest carries everything a provider needs to create one
// payment intent.
type InitiationRequest struct {
	Amount         decimal.Decimal
	Currency       string
	PayerID        uuid.UUID
	SubjectID      uuid.UUID
	CustomerEmail  string
	CustomerName   string
	IdempotencyKey string
}

// InitiationResult is the provider's answer to an initiation call.
// ClientHandle is whatever the paying client needs to finish the payment
// out-of-band: a client secret for Stripe, a hosted redirect link for
// Flutterwave. Callers treat it as opaque.
type InitiationResult struct {
	ProviderReference string
	ClientHandle      string
}

// PaymentGateway is one external payment provider.
//
// Initiate creates exactly one provider-side payment intent per call and
// never retries internally: after an ambiguous failure (timeout) the
// provider may or may not have created the intent, so a blind retry risks
// a duplicate charge. That decision is surfaced to the caller.
type PaymentGateway interface {
	Provider() models.PaymentProvider
	Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error)

	// SignatureHeader names the HTTP header carrying this provider's
	// webhook signature.
	SignatureHeader() string

	// VerifyWebhook authenticates a raw webhook body against the given
	// signature and normalizes it into a GatewayEvent. It returns
	// ErrVerificationFailed on any authentication failure and
	// ErrIgnoredEvent for authenticated deliveries this subsystem does
	// not act on.
	VerifyWebhook(payload []byte, signature string) (*models.GatewayEvent, error)
}

// Registry selects a gateway implementation by provider.
type Registry struct {
	gateways map[models.PaymentProvider]PaymentGateway
}

// NewRegistry builds a registry from the given gateways.
func NewRegistry(gateways ...PaymentGateway) *Registry {
	m := make(map[models.PaymentProvider]PaymentGateway, len(gateways))
	for _, gw := range gateways {
		m[gw.Provider()] = gw
	}
	return &Registry{gateways: m}
}

// ForProvider returns the gateway registered for p.
func (r *Registry) ForProvider(p models.PaymentProvider) (PaymentGateway, bool) {
	gw, ok := r.gateways[p]
	return gw, ok
}
