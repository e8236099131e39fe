package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atlasmarket/payments/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best effort response writing
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeServiceError maps typed service errors to HTTP responses so the
// caller can distinguish retryable from non-retryable failures.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		h.logger.Error("unexpected error", "error", err)
		writeError(w, http.StatusInternalServerError, service.ErrCodeInternalError, "internal error")
		return
	}

	writeError(w, statusForCode(svcErr.Code), svcErr.Code, svcErr.Message)
}

func statusForCode(code string) int {
	switch code {
	case service.ErrCodeInvalidAmount,
		service.ErrCodeInvalidCurrency,
		service.ErrCodeInvalidProvider,
		service.ErrCodeGatewayRejected:
		return http.StatusBadRequest
	case service.ErrCodeForbidden:
		return http.StatusForbidden
	case service.ErrCodeNotFound:
		return http.StatusNotFound
	case service.ErrCodeIllegalTransition:
		return http.StatusConflict
	case service.ErrCodeGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
