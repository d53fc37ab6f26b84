package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ansagu88/foodtruck/internal/events"
)

// EventsRepo appends to the domain event log.
type EventsRepo struct {
	pool *pgxpool.Pool
}

// NewEventsRepo constructs an EventsRepo backed by a pgx connection pool.
func NewEventsRepo(pool *pgxpool.Pool) *EventsRepo {
	return &EventsRepo{pool: pool}
}

// Insert persists an event and returns it with the stored timestamp.
func (r *EventsRepo) Insert(ctx context.Context, event events.Event) (events.Event, error) {
	if r == nil || r.pool == nil {
		return events.Event{}, ErrStoreUnavailable
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO domain_events (id, topic, aggregate_id, payload)
VALUES ($1, $2, $3, $4) RETURNING occurred_at`,
		event.ID, event.Topic, event.AggregateID, event.Payload).Scan(&event.OccurredAt)
	if err != nil {
		return events.Event{}, err
	}
	return event, nil
}
