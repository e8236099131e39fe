package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/atlasmarket/payments/internal/gateway"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/service"
)

// maxWebhookBytes bounds provider webhook bodies. Real deliveries are a
// few KB; anything larger is rejected before verification.
const maxWebhookBytes = 1 << 20

// HandleWebhook handles POST /api/v1/webhooks/{provider}.
//
// Verification failures are the only 400s. Everything past verification
// acks 200 regardless of reconciliation outcome so providers stop
// redelivering: duplicates, unknown references, and illegal transitions
// are recorded and logged, never bounced back.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := models.PaymentProvider(r.PathValue("provider"))

	gw, ok := h.gateways.ForProvider(provider)
	if !ok {
		writeError(w, http.StatusBadRequest, "webhook_verification_failed", "webhook verification failed")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "webhook_verification_failed", "webhook verification failed")
		return
	}

	event, err := gw.VerifyWebhook(payload, r.Header.Get(gw.SignatureHeader()))
	if err != nil {
		if errors.Is(err, gateway.ErrIgnoredEvent) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		h.logger.Warn("webhook verification failed",
			"provider", provider,
			"remote_addr", r.RemoteAddr,
		)
		writeError(w, http.StatusBadRequest, "webhook_verification_failed", "webhook verification failed")
		return
	}

	result, err := h.reconciler.Apply(r.Context(), event)
	if err != nil {
		writeError(w, http.StatusInternalServerError, service.ErrCodeInternalError, "failed to process webhook")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(result.Outcome)})
}
