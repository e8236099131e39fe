package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentProvider identifies which external gateway owns a payment attempt
type PaymentProvider string

const (
	ProviderStripe      PaymentProvider = "stripe"
	ProviderFlutterwave PaymentProvider = "flutterwave"
)

// Valid reports whether p is a supported provider
func (p PaymentProvider) Valid() bool {
	return p == ProviderStripe || p == ProviderFlutterwave
}

// TransactionStatus represents the reconciliation state of a transaction
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusRefunded  TransactionStatus = "refunded"
)

// Transaction is the authoritative record of one payment attempt.
//
// Rows are never deleted; status moves only along the edges defined in
// transition.go, and all status writes funnel through the reconciliation
// service so the audit log and the row stay consistent.
type Transaction struct {
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
	OfferID           *uuid.UUID        `db:"offer_id" json:"offer_id,omitempty"`
	Amount            decimal.Decimal   `db:"amount" json:"amount"`
	Currency          string            `db:"currency" json:"currency"`
	Provider          PaymentProvider   `db:"provider" json:"provider"`
	ProviderReference string            `db:"provider_reference" json:"provider_reference"`
	Status            TransactionStatus `db:"status" json:"status"`
	ID                uuid.UUID         `db:"id" json:"id"`
	BuyerID           uuid.UUID         `db:"buyer_id" json:"buyer_id"`
	SellerID          uuid.UUID         `db:"seller_id" json:"seller_id"`
	ListingID         uuid.UUID         `db:"listing_id" json:"listing_id"`
}

// IdempotencyKey tracks processed initiation requests to prevent duplicate charges
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at"`
	Key            string    `db:"key"`
	RequestPath    string    `db:"request_path"`
	ResponseBody   string    `db:"response_body"`
	ResponseStatus int       `db:"response_status"`
}
