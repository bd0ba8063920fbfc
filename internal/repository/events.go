package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"frontdesk/internal/entities"
)

// EventsRepo keeps an audit copy of every external event published by the desks.
type EventsRepo struct {
	db *sqlx.DB
}

func NewEventsRepo(db *sqlx.DB) *EventsRepo {
	if db == nil {
		panic("db is nil")
	}

	return &EventsRepo{db: db}
}

func (r *EventsRepo) SaveEvent(ctx context.Context, event entities.StoredEvent) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO events (event_id, published_at, event_name, station, event_payload)
		VALUES (:event_id, :published_at, :event_name, :station, :event_payload)
		ON CONFLICT DO NOTHING
	`, event)
	if err != nil {
		return fmt.Errorf("failed to save event %s: %w", event.Id, err)
	}

	return nil
}

func (r *EventsRepo) ListByName(ctx context.Context, eventName string, limit int) ([]entities.StoredEvent, error) {
	var stored []entities.StoredEvent
	err := r.db.SelectContext(ctx, &stored, `
		SELECT event_id, published_at, event_name, station, event_payload
		FROM events
		WHERE event_name = $1
		ORDER BY published_at DESC
		LIMIT $2
	`, eventName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s events: %w", eventName, err)
	}

	return stored, nil
}
