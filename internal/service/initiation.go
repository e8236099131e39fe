package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atlasmarket/payments/internal/cache"
	"github.com/atlasmarket/payments/internal/db"
	"github.com/atlasmarket/payments/internal/gateway"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitiationRequest carries a validated payment request from the API
// boundary into the subsystem.
type InitiationRequest struct {
	OfferID        *uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	CustomerEmail  string
	CustomerName   string
	IdempotencyKey string
	Provider       models.PaymentProvider
	BuyerID        uuid.UUID
	SellerID       uuid.UUID
	ListingID      uuid.UUID
}

// InitiationResult is the created pending transaction plus the opaque
// handle the client needs to complete payment with the provider.
type InitiationResult struct {
	Transaction  *models.Transaction
	ClientHandle string
}

// InitiationService creates provider-side payment intents and the local
// pending transaction rows that track them.
type InitiationService struct {
	db       *db.DB
	gateways *gateway.Registry
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewInitiationService creates a new InitiationService
func NewInitiationService(database *db.DB, gateways *gateway.Registry, queryCache *cache.Cache, logger *slog.Logger) *InitiationService {
	return &InitiationService{
		db:       database,
		gateways: gateways,
		cache:    queryCache,
		logger:   logger,
	}
}

// Initiate creates exactly one provider-side payment intent and persists
// the matching pending transaction. The gateway call happens first and is
// never retried here; a crash between the provider call and the local
// commit leaves an orphaned intent that the out-of-band reconciliation
// sweep recovers via the audit log.
func (s *InitiationService) Initiate(ctx context.Context, req InitiationRequest) (*InitiationResult, error) {
	if err := s.validateInitiationRequest(req); err != nil {
		return nil, err
	}

	gw, ok := s.gateways.ForProvider(req.Provider)
	if !ok {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidProvider,
			Message: fmt.Sprintf("unsupported payment provider: %q", req.Provider),
		}
	}

	subjectID := req.ListingID
	if req.OfferID != nil {
		subjectID = *req.OfferID
	}

	result, err := gw.Initiate(ctx, gateway.InitiationRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		PayerID:        req.BuyerID,
		SubjectID:      subjectID,
		CustomerEmail:  req.CustomerEmail,
		CustomerName:   req.CustomerName,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}

	txn := &models.Transaction{
		BuyerID:           req.BuyerID,
		SellerID:          req.SellerID,
		ListingID:         req.ListingID,
		OfferID:           req.OfferID,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Provider:          req.Provider,
		ProviderReference: result.ProviderReference,
		Status:            models.StatusPending,
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

	if err := s.persistTransaction(ctx, repository.NewTransactionRepository(tx), txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to commit transaction: %v", err),
		}
	}

	// Any cached list for this buyer predates the new row.
	s.cache.Delete(ctx, cache.BuyerTransactionsKey(txn.BuyerID))

	s.logger.Info("payment initiated",
		"transaction_id", txn.ID,
		"provider", txn.Provider,
		"provider_reference", txn.ProviderReference,
		"buyer_id", txn.BuyerID,
	)

	return &InitiationResult{
		Transaction:  txn,
		ClientHandle: result.ClientHandle,
	}, nil
}

// persistTransaction inserts the pending row. A duplicate provider
// reference here means two local rows tried to claim the same external
// payment; the unique constraint is the backstop and this is surfaced as
// an internal inconsistency, never as a user error.
func (s *InitiationService) persistTransaction(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	txn *models.Transaction,
) error {
	if err := transactionRepo.Create(ctx, txn); err != nil {
		if errors.Is(err, models.ErrDuplicateTransaction) {
			s.logger.Error("provider reference already claimed by another transaction",
				"provider", txn.Provider,
				"provider_reference", txn.ProviderReference,
			)
			return &ServiceError{
				Code:    ErrCodeInternalError,
				Message: "provider reference already recorded",
				Err:     err,
			}
		}
		return &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to persist transaction: %v", err),
		}
	}
	return nil
}

func (s *InitiationService) validateInitiationRequest(req InitiationRequest) error {
	if err := ValidateAmount(req.Amount); err != nil {
		return &ServiceError{Code: ErrCodeInvalidAmount, Message: err.Error()}
	}
	if err := ValidateCurrency(req.Currency); err != nil {
		return &ServiceError{Code: ErrCodeInvalidCurrency, Message: err.Error()}
	}
	if err := ValidateProvider(req.Provider); err != nil {
		return &ServiceError{Code: ErrCodeInvalidProvider, Message: err.Error()}
	}
	return nil
}

// mapGatewayError translates typed gateway failures into service error
// codes the HTTP boundary maps to retryable vs non-retryable responses.
func mapGatewayError(err error) error {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		return &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "unexpected gateway failure",
			Err:     err,
		}
	}

	switch gwErr.Kind {
	case gateway.KindRejected:
		return &ServiceError{Code: ErrCodeGatewayRejected, Message: gwErr.Message, Err: err}
	case gateway.KindMisconfigured:
		return &ServiceError{Code: ErrCodeGatewayMisconfigured, Message: gwErr.Message, Err: err}
	default:
		return &ServiceError{Code: ErrCodeGatewayUnavailable, Message: gwErr.Message, Err: err}
	}
}
