package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atlasmarket/payments/internal/cache"
	"github.com/atlasmarket/payments/internal/db"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/repository"
	"github.com/google/uuid"
)

// ApplyOutcome describes what applying a gateway event did.
type ApplyOutcome string

const (
	// ApplyApplied means the event moved the transaction along a legal edge.
	ApplyApplied ApplyOutcome = "applied"

	// ApplyDuplicate means the event's effect had already been applied;
	// the redelivery was absorbed as a no-op.
	ApplyDuplicate ApplyOutcome = "duplicate"

	// ApplyUnknownReference means no transaction matches the event. The
	// delivery is still audited so the out-of-band sweep can find it.
	ApplyUnknownReference ApplyOutcome = "unknown_reference"

	// ApplyIllegalTransition means the event attempted an edge the state
	// machine forbids. Recorded and rejected without mutating the row.
	ApplyIllegalTransition ApplyOutcome = "illegal_transition"
)

// ApplyResult reports the outcome of one event application. Transaction
// is nil when the reference was unknown.
type ApplyResult struct {
	Transaction *models.Transaction
	Outcome     ApplyOutcome
}

// ReconciliationService owns every status write to the transaction table.
// It applies gateway events idempotently: duplicates and out-of-order
// deliveries are absorbed, never errored back to the provider, because
// providers treat errors as an invitation to redeliver.
type ReconciliationService struct {
	db     *db.DB
	cache  *cache.Cache
	logger *slog.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(database *db.DB, queryCache *cache.Cache, logger *slog.Logger) *ReconciliationService {
	return &ReconciliationService{
		db:     database,
		cache:  queryCache,
		logger: logger,
	}
}

// Apply records the event in the audit log and applies its effect to the
// matching transaction at most once. The audit insert and the status
// update share one database transaction, so a crash cannot leave an
// applied event with no audit row or vice versa.
func (s *ReconciliationService) Apply(ctx context.Context, event *models.GatewayEvent) (*ApplyResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to start transaction: %v", err),
		}
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	result, err := s.performApply(ctx,
		repository.NewEventRepository(tx),
		repository.NewTransactionRepository(tx),
		event,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to commit transaction: %v", err),
		}
	}

	if result.Outcome == ApplyApplied {
		s.cache.Delete(ctx, cache.BuyerTransactionsKey(result.Transaction.BuyerID))
	}

	return result, nil
}

// performApply contains the core reconciliation logic
func (s *ReconciliationService) performApply(
	ctx context.Context,
	eventRepo repository.EventRepository,
	transactionRepo repository.TransactionRepository,
	event *models.GatewayEvent,
) (*ApplyResult, error) {
	if err := eventRepo.Create(ctx, event); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to record gateway event: %v", err),
		}
	}

	txn, err := transactionRepo.FindByProviderReferenceForUpdate(ctx, event.Provider, event.ProviderReference)
	if errors.Is(err, models.ErrNotFound) {
		// The initiation write may not have committed yet, or the
		// reference belongs to an intent this system never recorded.
		// Audited and acknowledged; the reconciliation sweep follows up.
		s.logger.Warn("gateway event for unknown provider reference",
			"provider", event.Provider,
			"provider_reference", event.ProviderReference,
			"outcome", event.Outcome,
		)
		return &ApplyResult{Outcome: ApplyUnknownReference}, nil
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to look up transaction: %v", err),
		}
	}

	next, legal := models.NextStatus(txn.Status, event.Outcome)
	if !legal {
		if models.IsDuplicate(txn.Status, event.Outcome) {
			s.logger.Debug("duplicate gateway event absorbed",
				"transaction_id", txn.ID,
				"status", txn.Status,
				"outcome", event.Outcome,
			)
			return &ApplyResult{Transaction: txn, Outcome: ApplyDuplicate}, nil
		}
		s.logger.Warn("illegal status transition rejected",
			"transaction_id", txn.ID,
			"status", txn.Status,
			"outcome", event.Outcome,
			"provider", event.Provider,
			"provider_reference", event.ProviderReference,
		)
		return &ApplyResult{Transaction: txn, Outcome: ApplyIllegalTransition}, nil
	}

	updated, err := transactionRepo.UpdateStatusFrom(ctx, txn.ID, txn.Status, next)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to update transaction status: %v", err),
		}
	}
	if !updated {
		// A concurrent applier won the transition; observe the new
		// state and take the no-op path.
		s.logger.Warn("lost status transition race",
			"transaction_id", txn.ID,
			"expected_status", txn.Status,
			"outcome", event.Outcome,
		)
		return &ApplyResult{Transaction: txn, Outcome: ApplyDuplicate}, nil
	}

	txn.Status = next
	s.logger.Info("transaction status updated",
		"transaction_id", txn.ID,
		"status", next,
		"provider", event.Provider,
		"provider_reference", event.ProviderReference,
	)

	return &ApplyResult{Transaction: txn, Outcome: ApplyApplied}, nil
}

// Refund is the administrative override for the completed -> refunded
// edge. It runs through the same transition table and audit log as
// gateway-driven transitions.
func (s *ReconciliationService) Refund(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error) {
	if actor.Role != models.RoleAdmin {
		return nil, &ServiceError{
			Code:    ErrCodeForbidden,
			Message: "only administrators may refund a transaction",
		}
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to start transaction: %v", err),
		}
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txn, err := s.performRefund(ctx,
		repository.NewEventRepository(tx),
		repository.NewTransactionRepository(tx),
		id, actor,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to commit transaction: %v", err),
		}
	}

	s.cache.Delete(ctx, cache.BuyerTransactionsKey(txn.BuyerID))

	return txn, nil
}

// performRefund contains the core refund override logic
func (s *ReconciliationService) performRefund(
	ctx context.Context,
	eventRepo repository.EventRepository,
	transactionRepo repository.TransactionRepository,
	id uuid.UUID,
	actor models.Actor,
) (*models.Transaction, error) {
	txn, err := transactionRepo.FindByIDForUpdate(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeNotFound,
			Message: "transaction not found",
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to look up transaction: %v", err),
		}
	}

	next, legal := models.NextStatus(txn.Status, models.OutcomeRefunded)
	if !legal {
		return nil, &ServiceError{
			Code:    ErrCodeIllegalTransition,
			Message: fmt.Sprintf("cannot refund a %s transaction", txn.Status),
		}
	}

	payload, err := json.Marshal(map[string]string{
		"source":   "admin_override",
		"actor_id": actor.ID.String(),
	})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to encode override payload: %v", err),
		}
	}

	if err := eventRepo.Create(ctx, &models.GatewayEvent{
		Provider:          txn.Provider,
		ProviderReference: txn.ProviderReference,
		Outcome:           models.OutcomeRefunded,
		RawPayload:        payload,
	}); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to record refund override: %v", err),
		}
	}

	updated, err := transactionRepo.UpdateStatusFrom(ctx, txn.ID, txn.Status, next)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to update transaction status: %v", err),
		}
	}
	if !updated {
		return nil, &ServiceError{
			Code:    ErrCodeIllegalTransition,
			Message: "transaction status changed concurrently",
		}
	}

	txn.Status = next
	s.logger.Info("transaction refunded by administrative override",
		"transaction_id", txn.ID,
		"actor_id", actor.ID,
	)

	return txn, nil
}
