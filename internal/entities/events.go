package entities

import (
	"time"
)

type Event interface {
	IsInternal() bool
	EventHeader() EventHeader
}

type PurchaseVerified_v1 struct {
	Header EventHeader `json:"header"`

	PurchaseID string `json:"purchase_id"`
	LookupKey  string `json:"lookup_key"`
	EventName  string `json:"event_name"`
	Used       bool   `json:"used"`
}

func (e PurchaseVerified_v1) IsInternal() bool         { return true }
func (e PurchaseVerified_v1) EventHeader() EventHeader { return e.Header }

type VerificationFailed_v1 struct {
	Header EventHeader `json:"header"`

	Kind      string `json:"kind"`
	LookupKey string `json:"lookup_key"`
	Reason    string `json:"reason"`
}

func (e VerificationFailed_v1) IsInternal() bool         { return true }
func (e VerificationFailed_v1) EventHeader() EventHeader { return e.Header }

type PurchaseCheckedIn_v1 struct {
	Header EventHeader `json:"header"`

	PurchaseID  string    `json:"purchase_id"`
	EventName   string    `json:"event_name"`
	TicketType  string    `json:"ticket_type"`
	Quantity    int       `json:"quantity"`
	CheckedInBy string    `json:"checked_in_by"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

func (e PurchaseCheckedIn_v1) IsInternal() bool         { return false }
func (e PurchaseCheckedIn_v1) EventHeader() EventHeader { return e.Header }

type BookingCheckedIn_v1 struct {
	Header EventHeader `json:"header"`

	BookingID   string    `json:"booking_id"`
	Reference   string    `json:"reference"`
	Room        string    `json:"room"`
	CheckedInBy string    `json:"checked_in_by"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

func (e BookingCheckedIn_v1) IsInternal() bool         { return false }
func (e BookingCheckedIn_v1) EventHeader() EventHeader { return e.Header }

type BookingCheckedOut_v1 struct {
	Header EventHeader `json:"header"`

	BookingID    string    `json:"booking_id"`
	Reference    string    `json:"reference"`
	Room         string    `json:"room"`
	CheckedOutBy string    `json:"checked_out_by"`
	CheckedOutAt time.Time `json:"checked_out_at"`
}

func (e BookingCheckedOut_v1) IsInternal() bool         { return false }
func (e BookingCheckedOut_v1) EventHeader() EventHeader { return e.Header }
