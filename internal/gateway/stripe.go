package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atlasmarket/payments/internal/config"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/shopspring/decimal"
)

const (
	stripeSignatureHeader = "Stripe-Signature"

	// Maximum age of a signed webhook before it is rejected as a replay.
	stripeSignatureTolerance = 5 * time.Minute

	maxResponseBytes = 1 << 20
)

// Stripe implements PaymentGateway over Stripe's payment-intent API.
type Stripe struct {
	cfg    config.StripeConfig
	client *http.Client
	logger *slog.Logger
}

// NewStripe creates a Stripe gateway with a bounded-timeout HTTP client.
func NewStripe(cfg config.StripeConfig, logger *slog.Logger) *Stripe {
	return &Stripe{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Provider returns the provider tag stored on transactions this gateway creates.
func (g *Stripe) Provider() models.PaymentProvider {
	return models.ProviderStripe
}

// SignatureHeader returns the Stripe webhook signature header name.
func (g *Stripe) SignatureHeader() string {
	return stripeSignatureHeader
}

// Initiate creates one payment intent. The provider reference is the
// intent id; the client handle is the client secret the frontend needs
// to confirm the payment.
func (g *Stripe) Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error) {
	if g.cfg.SecretKey == "" {
		return nil, misconfigured(models.ProviderStripe, "missing secret key")
	}

	units, err := minorUnits(req.Amount, req.Currency)
	if err != nil {
		return nil, rejected(models.ProviderStripe, err.Error())
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(units, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[payer_id]", req.PayerID.String())
	form.Set("metadata[subject_id]", req.SubjectID.String())
	if req.CustomerEmail != "" {
		form.Set("receipt_email", req.CustomerEmail)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, unavailable(models.ProviderStripe, "failed to build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		// The intent may or may not exist on the provider side now;
		// surfaced as unavailable, never silently retried.
		return nil, unavailable(models.ProviderStripe, "payment intent creation failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, unavailable(models.ProviderStripe, "failed to read response", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, unavailable(models.ProviderStripe,
			fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &errResp)
		msg := errResp.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("provider returned %d", resp.StatusCode)
		}
		return nil, rejected(models.ProviderStripe, msg)
	}

	var intent struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(body, &intent); err != nil || intent.ID == "" {
		return nil, unavailable(models.ProviderStripe, "malformed provider response", err)
	}

	g.logger.Debug("created stripe payment intent", "intent_id", intent.ID)

	return &InitiationResult{
		ProviderReference: intent.ID,
		ClientHandle:      intent.ClientSecret,
	}, nil
}

// VerifyWebhook checks the Stripe-Signature header (t=<unix>,v1=<hmac>)
// against an HMAC-SHA256 of "<t>.<payload>" with the endpoint secret,
// then normalizes the event.
func (g *Stripe) VerifyWebhook(payload []byte, signature string) (*models.GatewayEvent, error) {
	if g.cfg.WebhookSecret == "" {
		return nil, ErrVerificationFailed
	}

	timestamp, candidates, err := parseStripeSignature(signature)
	if err != nil {
		return nil, ErrVerificationFailed
	}

	age := time.Since(time.Unix(timestamp, 0))
	if age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return nil, ErrVerificationFailed
	}

	mac := hmac.New(sha256.New, []byte(g.cfg.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, candidate := range candidates {
		decoded, decodeErr := hex.DecodeString(candidate)
		if decodeErr != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			verified = true
		}
	}
	if !verified {
		return nil, ErrVerificationFailed
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string `json:"id"`
				PaymentIntent string `json:"payment_intent"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrVerificationFailed
	}

	var outcome models.EventOutcome
	switch event.Type {
	case "payment_intent.succeeded":
		outcome = models.OutcomeSucceeded
	case "payment_intent.payment_failed", "payment_intent.canceled":
		outcome = models.OutcomeFailed
	case "charge.refunded":
		outcome = models.OutcomeRefunded
	default:
		return nil, ErrIgnoredEvent
	}

	// Charge-level events carry the intent id in payment_intent rather
	// than id; the intent id is what correlates to the local row.
	reference := event.Data.Object.PaymentIntent
	if reference == "" {
		reference = event.Data.Object.ID
	}
	if reference == "" {
		return nil, ErrVerificationFailed
	}

	return &models.GatewayEvent{
		Provider:          models.ProviderStripe,
		ProviderReference: reference,
		Outcome:           outcome,
		RawPayload:        payload,
		ReceivedAt:        time.Now().UTC(),
	}, nil
}

// parseStripeSignature extracts the timestamp and all v1 signature
// candidates from a Stripe-Signature header value.
func parseStripeSignature(header string) (int64, []string, error) {
	var (
		timestamp  int64
		candidates []string
	)

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid timestamp in signature header")
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return 0, nil, fmt.Errorf("incomplete signature header")
	}
	return timestamp, candidates, nil
}

// zeroDecimalCurrencies are ISO-4217 codes Stripe treats as having no
// minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// minorUnits converts a fixed-point amount to the provider's integer
// minor-unit representation, rejecting amounts with more precision than
// the currency carries.
func minorUnits(amount decimal.Decimal, currency string) (int64, error) {
	shift := int32(2)
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		shift = 0
	}

	shifted := amount.Shift(shift)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has more precision than %s allows", amount, currency)
	}
	return shifted.IntPart(), nil
}
