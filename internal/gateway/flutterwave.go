package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/atlasmarket/payments/internal/config"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/google/uuid"
)

const flutterwaveSignatureHeader = "verif-hash"

// Flutterwave implements PaymentGateway over Flutterwave's hosted
// payment API.
type Flutterwave struct {
	cfg    config.FlutterwaveConfig
	client *http.Client
	logger *slog.Logger
}

// NewFlutterwave creates a Flutterwave gateway with a bounded-timeout
// HTTP client.
func NewFlutterwave(cfg config.FlutterwaveConfig, logger *slog.Logger) *Flutterwave {
	return &Flutterwave{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Provider returns the provider tag stored on transactions this gateway creates.
func (g *Flutterwave) Provider() models.PaymentProvider {
	return models.ProviderFlutterwave
}

// SignatureHeader returns the Flutterwave webhook signature header name.
func (g *Flutterwave) SignatureHeader() string {
	return flutterwaveSignatureHeader
}

type flutterwavePaymentRequest struct {
	Customer    map[string]string `json:"customer,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	TxRef       string            `json:"tx_ref"`
	Amount      string            `json:"amount"`
	Currency    string            `json:"currency"`
	RedirectURL string            `json:"redirect_url,omitempty"`
}

// Initiate creates one hosted payment. Flutterwave correlates webhooks by
// the tx_ref the merchant supplies, so the provider reference is generated
// locally; the client handle is the hosted payment link the buyer is
// redirected to.
func (g *Flutterwave) Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error) {
	if g.cfg.SecretKey == "" {
		return nil, misconfigured(models.ProviderFlutterwave, "missing secret key")
	}

	txRef := "mkt-" + uuid.NewString()

	payload := flutterwavePaymentRequest{
		TxRef:       txRef,
		Amount:      req.Amount.String(),
		Currency:    req.Currency,
		RedirectURL: g.cfg.RedirectURL,
		Meta: map[string]string{
			"payer_id":   req.PayerID.String(),
			"subject_id": req.SubjectID.String(),
		},
	}
	if req.CustomerEmail != "" {
		payload.Customer = map[string]string{
			"email": req.CustomerEmail,
			"name":  req.CustomerName,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, unavailable(models.ProviderFlutterwave, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v3/payments", bytes.NewReader(body))
	if err != nil {
		return nil, unavailable(models.ProviderFlutterwave, "failed to build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, unavailable(models.ProviderFlutterwave, "payment creation failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, unavailable(models.ProviderFlutterwave, "failed to read response", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, unavailable(models.ProviderFlutterwave,
			fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	}

	var parsed struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, unavailable(models.ProviderFlutterwave, "malformed provider response", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || parsed.Status != "success" {
		msg := parsed.Message
		if msg == "" {
			msg = fmt.Sprintf("provider returned %d", resp.StatusCode)
		}
		return nil, rejected(models.ProviderFlutterwave, msg)
	}
	if parsed.Data.Link == "" {
		return nil, unavailable(models.ProviderFlutterwave, "provider response missing payment link", nil)
	}

	g.logger.Debug("created flutterwave payment", "tx_ref", txRef)

	return &InitiationResult{
		ProviderReference: txRef,
		ClientHandle:      parsed.Data.Link,
	}, nil
}

// VerifyWebhook compares the verif-hash header against the configured
// secret hash in constant time, then normalizes the event.
func (g *Flutterwave) VerifyWebhook(payload []byte, signature string) (*models.GatewayEvent, error) {
	if g.cfg.WebhookHash == "" || signature == "" {
		return nil, ErrVerificationFailed
	}
	if subtle.ConstantTimeCompare([]byte(signature), []byte(g.cfg.WebhookHash)) != 1 {
		return nil, ErrVerificationFailed
	}

	var event struct {
		Event string `json:"event"`
		Data  struct {
			TxRef  string `json:"tx_ref"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrVerificationFailed
	}

	var outcome models.EventOutcome
	switch event.Event {
	case "charge.completed":
		if event.Data.Status == "successful" {
			outcome = models.OutcomeSucceeded
		} else {
			outcome = models.OutcomeFailed
		}
	case "refund.completed":
		outcome = models.OutcomeRefunded
	default:
		return nil, ErrIgnoredEvent
	}

	if event.Data.TxRef == "" {
		return nil, ErrVerificationFailed
	}

	return &models.GatewayEvent{
		Provider:          models.ProviderFlutterwave,
		ProviderReference: event.Data.TxRef,
		Outcome:           outcome,
		RawPayload:        payload,
		ReceivedAt:        time.Now().UTC(),
	}, nil
}
