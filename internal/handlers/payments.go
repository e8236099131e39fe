package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/atlasmarket/payments/internal/middleware"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createPaymentRequest struct {
	OfferID       *uuid.UUID      `json:"offer_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Provider      string          `json:"provider"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	ListingID     uuid.UUID       `json:"listing_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
}

type createPaymentResponse struct {
	TransactionID string `json:"transaction_id"`
	Provider      string `json:"provider"`
	ClientHandle  string `json:"client_handle"`
	Status        string `json:"status"`
}

// CreatePayment handles POST /api/v1/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthenticated")
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}

	if req.ListingID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "listing_id is required")
		return
	}
	if req.SellerID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "seller_id is required")
		return
	}

	result, err := h.initiator.Initiate(r.Context(), service.InitiationRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		Provider:       models.PaymentProvider(req.Provider),
		BuyerID:        actor.ID,
		SellerID:       req.SellerID,
		ListingID:      req.ListingID,
		OfferID:        req.OfferID,
		CustomerEmail:  req.CustomerEmail,
		CustomerName:   req.CustomerName,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createPaymentResponse{
		TransactionID: result.Transaction.ID.String(),
		Provider:      string(result.Transaction.Provider),
		ClientHandle:  result.ClientHandle,
		Status:        string(result.Transaction.Status),
	})
}
