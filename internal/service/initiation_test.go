package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atlasmarket/payments/internal/gateway"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway fails every initiation with a fixed error, which is enough
// to exercise validation and error mapping without a provider.
type stubGateway struct {
	provider models.PaymentProvider
	err      error
}

func (s *stubGateway) Provider() models.PaymentProvider { return s.provider }
func (s *stubGateway) SignatureHeader() string          { return "X-Stub-Signature" }

func (s *stubGateway) Initiate(ctx context.Context, req gateway.InitiationRequest) (*gateway.InitiationResult, error) {
	return nil, s.err
}

func (s *stubGateway) VerifyWebhook(payload []byte, signature string) (*models.GatewayEvent, error) {
	return nil, gateway.ErrVerificationFailed
}

func validInitiationRequest() InitiationRequest {
	return InitiationRequest{
		Amount:    decimal.RequireFromString("49.99"),
		Currency:  "USD",
		Provider:  models.ProviderStripe,
		BuyerID:   uuid.New(),
		SellerID:  uuid.New(),
		ListingID: uuid.New(),
	}
}

func TestInitiateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewInitiationService(nil, gateway.NewRegistry(), nil, testLogger())

	tests := []struct {
		name     string
		mutate   func(*InitiationRequest)
		wantCode string
	}{
		{
			name:     "zero amount",
			mutate:   func(r *InitiationRequest) { r.Amount = decimal.Zero },
			wantCode: ErrCodeInvalidAmount,
		},
		{
			name:     "negative amount",
			mutate:   func(r *InitiationRequest) { r.Amount = decimal.RequireFromString("-5") },
			wantCode: ErrCodeInvalidAmount,
		},
		{
			name:     "lowercase currency",
			mutate:   func(r *InitiationRequest) { r.Currency = "usd" },
			wantCode: ErrCodeInvalidCurrency,
		},
		{
			name:     "short currency",
			mutate:   func(r *InitiationRequest) { r.Currency = "US" },
			wantCode: ErrCodeInvalidCurrency,
		},
		{
			name:     "unknown provider",
			mutate:   func(r *InitiationRequest) { r.Provider = "paypal" },
			wantCode: ErrCodeInvalidProvider,
		},
		{
			name:     "unregistered provider",
			mutate:   func(r *InitiationRequest) {},
			wantCode: ErrCodeInvalidProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validInitiationRequest()
			tt.mutate(&req)

			_, err := svc.Initiate(ctx, req)

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.wantCode, svcErr.Code)
		})
	}
}

func TestInitiateGatewayErrorMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		gatewayErr error
		wantCode   string
	}{
		{
			name:       "rejected",
			gatewayErr: &gateway.Error{Provider: models.ProviderStripe, Kind: gateway.KindRejected, Message: "card declined"},
			wantCode:   ErrCodeGatewayRejected,
		},
		{
			name:       "unavailable",
			gatewayErr: &gateway.Error{Provider: models.ProviderStripe, Kind: gateway.KindUnavailable, Message: "timeout"},
			wantCode:   ErrCodeGatewayUnavailable,
		},
		{
			name:       "misconfigured",
			gatewayErr: &gateway.Error{Provider: models.ProviderStripe, Kind: gateway.KindMisconfigured, Message: "missing secret key"},
			wantCode:   ErrCodeGatewayMisconfigured,
		},
		{
			name:       "untyped failure",
			gatewayErr: errors.New("boom"),
			wantCode:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := gateway.NewRegistry(&stubGateway{
				provider: models.ProviderStripe,
				err:      tt.gatewayErr,
			})
			svc := NewInitiationService(nil, registry, nil, testLogger())

			_, err := svc.Initiate(ctx, validInitiationRequest())

			var svcErr *ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.wantCode, svcErr.Code)
		})
	}
}

func TestValidators(t *testing.T) {
	t.Run("amount", func(t *testing.T) {
		assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01")))
		assert.Error(t, ValidateAmount(decimal.Zero))
		assert.Error(t, ValidateAmount(decimal.RequireFromString("-1")))
	})

	t.Run("currency", func(t *testing.T) {
		assert.NoError(t, ValidateCurrency("USD"))
		assert.NoError(t, ValidateCurrency("NGN"))
		assert.Error(t, ValidateCurrency("usd"))
		assert.Error(t, ValidateCurrency("USDT"))
		assert.Error(t, ValidateCurrency(""))
		assert.Error(t, ValidateCurrency("U$D"))
	})

	t.Run("provider", func(t *testing.T) {
		assert.NoError(t, ValidateProvider(models.ProviderStripe))
		assert.NoError(t, ValidateProvider(models.ProviderFlutterwave))
		assert.Error(t, ValidateProvider("paypal"))
		assert.Error(t, ValidateProvider(""))
	})
}
