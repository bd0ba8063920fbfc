package entities

import (
	"time"

	"github.com/google/uuid"
)

// StoredEvent is the audit copy of an external event, as kept by the events store.
type StoredEvent struct {
	Id          uuid.UUID `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	EventName   string    `db:"event_name"`
	Station     string    `db:"station"`
	Payload     []byte    `db:"event_payload"`
}
