package entities

import (
	"time"

	"github.com/google/uuid"
)

type EventHeader struct {
	Id             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
	Station        string    `json:"station,omitempty"`
}

func NewEventHeader(station string) EventHeader {
	return NewEventHeaderWithIdempotencyKey(station, uuid.NewString())
}

func NewEventHeaderWithIdempotencyKey(station, idempotencyKey string) EventHeader {
	return EventHeader{
		Id:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
		Station:        station,
	}
}
