package models

import (
	"time"

	"github.com/google/uuid"
)

// EventOutcome is the normalized result a gateway reported for a payment
type EventOutcome string

const (
	OutcomeSucceeded EventOutcome = "succeeded"
	OutcomeFailed    EventOutcome = "failed"
	OutcomeRefunded  EventOutcome = "refunded"
)

// GatewayEvent is one verified webhook delivery, normalized across
// providers. Rows are append-only: every delivery is recorded for audit,
// including duplicates whose effect is never applied twice.
type GatewayEvent struct {
	ReceivedAt        time.Time       `db:"received_at" json:"received_at"`
	RawPayload        []byte          `db:"raw_payload" json:"-"`
	Provider          PaymentProvider `db:"provider" json:"provider"`
	ProviderReference string          `db:"provider_reference" json:"provider_reference"`
	Outcome           EventOutcome    `db:"outcome" json:"outcome"`
	ID                uuid.UUID       `db:"id" json:"id"`
}
