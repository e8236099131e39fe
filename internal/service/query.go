package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlasmarket/payments/internal/cache"
	"github.com/atlasmarket/payments/internal/db"
	"github.com/atlasmarket/payments/internal/models"
	"github.com/atlasmarket/payments/internal/repository"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100

	// How many rows the cached buyer page holds; requests are sliced
	// from it locally.
	cachedPageSize = maxPageSize
)

// QueryService provides authorization-narrowed read access to
// transactions.
type QueryService struct {
	db       *db.DB
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewQueryService creates a new QueryService
func NewQueryService(database *db.DB, queryCache *cache.Cache, cacheTTL time.Duration, logger *slog.Logger) *QueryService {
	return &QueryService{
		db:       database,
		cache:    queryCache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetByID returns a transaction if the actor is its buyer, the listing's
// seller, or an administrator.
func (s *QueryService) GetByID(ctx context.Context, id uuid.UUID, actor models.Actor) (*models.Transaction, error) {
	repo := repository.NewTransactionRepository(s.db)

	txn, err := repo.FindByID(ctx, id)
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

	if !actor.CanRead(txn) {
		return nil, &ServiceError{
			Code:    ErrCodeForbidden,
			Message: "not authorized to view this transaction",
		}
	}

	return txn, nil
}

// ListForBuyer returns the actor's own transactions, newest first. Reads
// go through the cache when one is configured; cache failures degrade to
// the database.
func (s *QueryService) ListForBuyer(ctx context.Context, actor models.Actor, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	key := cache.BuyerTransactionsKey(actor.ID)

	var cached []models.Transaction
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("transaction cache read failed", "error", err)
	}
	if hit {
		if len(cached) > limit {
			cached = cached[:limit]
		}
		return cached, nil
	}

	repo := repository.NewTransactionRepository(s.db)
	txns, err := repo.ListByBuyer(ctx, actor.ID, cachedPageSize)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to list transactions: %v", err),
		}
	}

	if err := s.cache.SetJSON(ctx, key, txns, s.cacheTTL); err != nil {
		s.logger.Warn("transaction cache write failed", "error", err)
	}

	if len(txns) > limit {
		txns = txns[:limit]
	}
	return txns, nil
}
