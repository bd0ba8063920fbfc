package checkin

import (
	"strings"
	"time"
)

type Kind string

const (
	KindPurchase Kind = "purchase"
	KindBooking  Kind = "booking"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindPurchase:
		return KindPurchase, nil
	case KindBooking:
		return KindBooking, nil
	}

	return "", ErrUnknownKind
}

// Record is anything the desk can look up and redeem.
type Record interface {
	RecordID() string
	Kind() Kind
	// Redeemed reports whether the record can no longer be checked in.
	Redeemed() bool
}

type PurchaseRecord struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	EventName   string     `json:"event_name"`
	Email       string     `json:"email"`
	TicketType  string     `json:"ticket_type"`
	Quantity    int        `json:"quantity"`
	Used        bool       `json:"used"`
	CheckedInBy string     `json:"checked_in_by,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

func (p PurchaseRecord) RecordID() string { return p.ID }
func (p PurchaseRecord) Kind() Kind       { return KindPurchase }
func (p PurchaseRecord) Redeemed() bool   { return p.Used }

const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusCheckedIn  = "checked_in"
	BookingStatusCheckedOut = "checked_out"
	BookingStatusCancelled  = "cancelled"
)

type BookingRecord struct {
	ID           string     `json:"id"`
	Reference    string     `json:"reference"`
	GuestName    string     `json:"guest_name"`
	Email        string     `json:"email"`
	Room         string     `json:"room,omitempty"`
	Apartment    string     `json:"apartment,omitempty"`
	CheckInDate  time.Time  `json:"check_in_date"`
	CheckOutDate time.Time  `json:"check_out_date"`
	Status       string     `json:"status"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

func (b BookingRecord) RecordID() string { return b.ID }
func (b BookingRecord) Kind() Kind       { return KindBooking }

func (b BookingRecord) Redeemed() bool {
	return b.CheckedIn() || b.CheckedOut() || b.Status == BookingStatusCancelled
}

func (b BookingRecord) CheckedIn() bool {
	return b.CheckedInAt != nil || b.Status == BookingStatusCheckedIn
}

func (b BookingRecord) CheckedOut() bool {
	return b.CheckedOutAt != nil || b.Status == BookingStatusCheckedOut
}

type Transaction struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	Email     string    `json:"email"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TransactionReference correlates a payment attempt to a server side transaction.
type TransactionReference string

func NewTransactionReference(raw string) (TransactionReference, error) {
	ref := strings.TrimSpace(raw)
	if ref == "" {
		return "", ErrEmptyReference
	}

	return TransactionReference(ref), nil
}

func (r TransactionReference) String() string { return string(r) }

type ScanResult struct {
	Text      string    `json:"text"`
	DeviceID  string    `json:"device_id"`
	ScannedAt time.Time `json:"scanned_at"`
}
