package handlers

import (
	"net/http"
	"strconv"

	"github.com/atlasmarket/payments/internal/middleware"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/service"
	"github.com/google/uuid"
)

type transactionResponse struct {
	ID                string  `json:"id"`
	BuyerID           string  `json:"buyer_id"`
	SellerID          string  `json:"seller_id"`
	ListingID         string  `json:"listing_id"`
	OfferID           *string `json:"offer_id,omitempty"`
	Amount            string  `json:"amount"`
	Currency          string  `json:"currency"`
	Provider          string  `json:"provider"`
	ProviderReference string  `json:"provider_reference"`
	Status            string  `json:"status"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toTransactionResponse(txn *models.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:                txn.ID.String(),
		BuyerID:           txn.BuyerID.String(),
		SellerID:          txn.SellerID.String(),
		ListingID:         txn.ListingID.String(),
		Amount:            txn.Amount.String(),
		Currency:          txn.Currency,
		Provider:          string(txn.Provider),
		ProviderReference: txn.ProviderReference,
		Status:            string(txn.Status),
		CreatedAt:         txn.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:         txn.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if txn.OfferID != nil {
		id := txn.OfferID.String()
		resp.OfferID = &id
	}
	return resp
}

// GetTransaction handles GET /api/v1/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthenticated")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, service.ErrCodeNotFound, "transaction not found")
		return
	}

	txn, err := h.querier.GetByID(r.Context(), id, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

// ListTransactions handles GET /api/v1/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be an integer")
			return
		}
		limit = parsed
	}

	txns, err := h.querier.ListForBuyer(r.Context(), actor, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": items,
		"count":        len(items),
	})
}

// RefundTransaction handles POST /api/v1/transactions/{id}/refund
func (h *Handler) RefundTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthenticated")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, service.ErrCodeNotFound, "transaction not found")
		return
	}

	txn, err := h.reconciler.Refund(r.Context(), id, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}
