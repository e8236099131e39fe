package repository

import (
	"context"
	"fmt"

	"github.com/atlasmarket/payments/internal/models"
	"github.com/google/uuid"
)

// EventRepository appends verified webhook deliveries to the audit log.
// The log is append-only: there are no update or delete operations.
type EventRepository interface {
	Create(ctx context.Context, event *models.GatewayEvent) error
	ListByProviderReference(ctx context.Context, provider models.PaymentProvider, reference string) ([]models.GatewayEvent, error)
}

type eventRepository struct {
	q Querier
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(q Querier) EventRepository {
	return &eventRepository{q: q}
}

// Create appends one delivery to the audit log
func (r *eventRepository) Create(ctx context.Context, event *models.GatewayEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	query := `
		INSERT INTO gateway_events (id, provider, provider_reference, outcome, raw_payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING received_at
	`

	err := r.q.QueryRowContext(ctx, query,
		event.ID,
		event.Provider,
		event.ProviderReference,
		event.Outcome,
		event.RawPayload,
	).Scan(&event.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to record gateway event: %w", err)
	}

	return nil
}

// ListByProviderReference returns every recorded delivery for one
// external payment, oldest first.
func (r *eventRepository) ListByProviderReference(ctx context.Context, provider models.PaymentProvider, reference string) ([]models.GatewayEvent, error) {
	query := `
		SELECT id, provider, provider_reference, outcome, raw_payload, received_at
		FROM gateway_events
		WHERE provider = $1 AND provider_reference = $2
		ORDER BY received_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, provider, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to list gateway events: %w", err)
	}
	defer rows.Close()

	var events []models.GatewayEvent
	for rows.Next() {
		var event models.GatewayEvent
		if err := rows.Scan(
			&event.ID,
			&event.Provider,
			&event.ProviderReference,
			&event.Outcome,
			&event.RawPayload,
			&event.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan gateway event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate gateway events: %w", err)
	}

	return events, nil
}
