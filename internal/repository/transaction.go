// Package repository provides data access implementations for the
// payment subsystem.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atlasmarket/payments/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// TransactionRepository defines the interface for transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByProviderReference(ctx context.Context, provider models.PaymentProvider, reference string) (*models.Transaction, error)
	FindByProviderReferenceForUpdate(ctx context.Context, provider models.PaymentProvider, reference string) (*models.Transaction, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to models.TransactionStatus) (bool, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Transaction, error)
}

type transactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(q Querier) TransactionRepository {
	return &transactionRepository{q: q}
}

const transactionColumns = `
	id, buyer_id, seller_id, listing_id, offer_id,
	amount, currency, provider, provider_reference, status,
	created_at, updated_at
`

// Create inserts a new transaction row, assigning an id when the caller
// has not. A unique violation on (provider, provider_reference) maps to
// models.ErrDuplicateTransaction.
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}

	query := `
		INSERT INTO transactions (
			id, buyer_id, seller_id, listing_id, offer_id,
			amount, currency, provider, provider_reference, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRowContext(ctx, query,
		txn.ID,
		txn.BuyerID,
		txn.SellerID,
		txn.ListingID,
		txn.OfferID,
		txn.Amount,
		txn.Currency,
		txn.Provider,
		txn.ProviderReference,
		txn.Status,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return models.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a transaction by its UUID
func (r *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// FindByIDForUpdate retrieves a transaction by id and takes a row lock
// until the surrounding transaction commits.
func (r *transactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// FindByProviderReference retrieves a transaction by its provider identity
func (r *transactionRepository) FindByProviderReference(ctx context.Context, provider models.PaymentProvider, reference string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider = $1 AND provider_reference = $2`
	return r.scanOne(r.q.QueryRowContext(ctx, query, provider, reference))
}

// FindByProviderReferenceForUpdate is FindByProviderReference with a row
// lock, serializing concurrent webhook appliers for the same payment.
func (r *transactionRepository) FindByProviderReferenceForUpdate(ctx context.Context, provider models.PaymentProvider, reference string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider = $1 AND provider_reference = $2 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, provider, reference))
}

// UpdateStatusFrom conditionally moves a transaction from one status to
// another. It reports false when the row was no longer in the expected
// status, which is how a losing concurrent applier observes the winner.
func (r *transactionRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to models.TransactionStatus) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.q.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListByBuyer returns the buyer's transactions, newest first.
func (r *transactionRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit int) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.QueryContext(ctx, query, buyerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := scanTransaction(rows.Scan, &txn); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

func (r *transactionRepository) scanOne(row *sql.Row) (*models.Transaction, error) {
	var txn models.Transaction
	err := scanTransaction(row.Scan, &txn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &txn, nil
}

func scanTransaction(scan func(dest ...any) error, txn *models.Transaction) error {
	var offerID uuid.NullUUID
	err := scan(
		&txn.ID,
		&txn.BuyerID,
		&txn.SellerID,
		&txn.ListingID,
		&offerID,
		&txn.Amount,
		&txn.Currency,
		&txn.Provider,
		&txn.ProviderReference,
		&txn.Status,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if offerID.Valid {
		txn.OfferID = &offerID.UUID
	}
	return nil
}
