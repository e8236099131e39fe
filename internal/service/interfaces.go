package service

import (
	"context"

	"github.com/atlasmarket/payments/internal/models"
	"github.com/google/uuid"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Initiator starts new payment transactions
type Initiator interface {
	Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error)
}

// Reconciler applies gateway events and administrative overrides to
// transaction state
type Reconciler interface {
	Apply(ctx context.Context, event *models.GatewayEvent) (*ApplyResult, error)
	Refund(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error)
}

// TransactionQuerier reads transactions with authorization narrowing
type TransactionQuerier interface {
	GetByID(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error)
	ListForBuyer(ctx context.Context, actor models.Actor, limit int) ([]models.Transaction, error)
}

// Ensure concrete types implement interfaces
var (
	_ Initiator          = (*InitiationService)(nil)
	_ Reconciler         = (*ReconciliationService)(nil)
	_ TransactionQuerier = (*QueryService)(nil)
)
