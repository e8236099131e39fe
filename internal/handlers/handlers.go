// Package handlers implements HTTP handlers for the payments API.
package handlers

import (
	"log/slog"

	"github.com/atlasmarket/payments/internal/gateway"
	"github.com/atlasmarket/payments/internal/service"
)

// Handler holds the service dependencies behind every endpoint
type Handler struct {
	initiator     service.Initiator
	reconciler    service.Reconciler
	querier       service.TransactionQuerier
	gateways      *gateway.Registry
	healthChecker service.HealthChecker
	logger        *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	initiator service.Initiator,
	reconciler service.Reconciler,
	querier service.TransactionQuerier,
	gateways *gateway.Registry,
	healthChecker service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		initiator:     initiator,
		reconciler:    reconciler,
		querier:       querier,
		gateways:      gateways,
		healthChecker: healthChecker,
		logger:        logger,
	}
}
