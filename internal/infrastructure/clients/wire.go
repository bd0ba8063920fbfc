package clients

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"frontdesk/internal/domain/checkin"
)

// The backend is loose about scalar types: flags come back as "0"/"1", 0/1 or
// booleans and numbers are sometimes quoted.

type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch strings.ToLower(unquote(b)) {
	case "1", "true", "yes":
		*f = true
	case "0", "false", "no", "", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag %s", b)
	}
	return nil
}

type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", b, err)
	}
	*n = flexInt(v)
	return nil
}

// flexString accepts both strings and numbers, ids are often numeric.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	v := unquote(b)
	if v == "null" {
		v = ""
	}
	*s = flexString(v)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type timestamp struct {
	time.Time
	Valid bool
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*t = timestamp{}
		return nil
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			*t = timestamp{Time: parsed, Valid: true}
			return nil
		}
	}

	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t timestamp) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func unquote(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		if s, err := strconv.Unquote(string(b)); err == nil {
			return strings.TrimSpace(s)
		}
		return string(b[1 : len(b)-1])
	}
	return string(b)
}

type namedRef struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (n *namedRef) String() string {
	if n == nil {
		return ""
	}
	if n.Name != "" {
		return n.Name
	}
	return n.Title
}

type purchaseDTO struct {
	ID          flexString `json:"id"`
	CreatedAt   timestamp  `json:"created_at"`
	Event       *namedRef  `json:"event"`
	EventName   string     `json:"event_name"`
	Email       string     `json:"email"`
	TicketType  string     `json:"ticket_type"`
	Quantity    flexInt    `json:"quantity"`
	Used        flag       `json:"used"`
	CheckedInBy string     `json:"checked_in_by"`
	CheckedInAt timestamp  `json:"checked_in_at"`
}

func (d purchaseDTO) toDomain() checkin.PurchaseRecord {
	eventName := d.EventName
	if eventName == "" {
		eventName = d.Event.String()
	}

	return checkin.PurchaseRecord{
		ID:          string(d.ID),
		CreatedAt:   d.CreatedAt.Time,
		EventName:   eventName,
		Email:       d.Email,
		TicketType:  d.TicketType,
		Quantity:    int(d.Quantity),
		Used:        bool(d.Used) || d.CheckedInAt.Valid,
		CheckedInBy: d.CheckedInBy,
		CheckedInAt: d.CheckedInAt.ptr(),
	}
}

type bookingDTO struct {
	ID           flexString `json:"id"`
	Reference    string     `json:"reference"`
	GuestName    string     `json:"name"`
	Email        string     `json:"email"`
	Room         *namedRef  `json:"room"`
	Apartment    *namedRef  `json:"apartment"`
	CheckInDate  timestamp  `json:"check_in"`
	CheckOutDate timestamp  `json:"check_out"`
	Status       string     `json:"status"`
	CheckedInAt  timestamp  `json:"checked_in_at"`
	CheckedOutAt timestamp  `json:"checked_out_at"`
}

func (d bookingDTO) toDomain() checkin.BookingRecord {
	return checkin.BookingRecord{
		ID:           string(d.ID),
		Reference:    d.Reference,
		GuestName:    d.GuestName,
		Email:        d.Email,
		Room:         d.Room.String(),
		Apartment:    d.Apartment.String(),
		CheckInDate:  d.CheckInDate.Time,
		CheckOutDate: d.CheckOutDate.Time,
		Status:       strings.ToLower(d.Status),
		CheckedInAt:  d.CheckedInAt.ptr(),
		CheckedOutAt: d.CheckedOutAt.ptr(),
	}
}

type transactionDTO struct {
	ID        flexString `json:"id"`
	Reference string     `json:"reference"`
	Email     string     `json:"email"`
	Amount    flexString `json:"amount"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
	CreatedAt timestamp  `json:"created_at"`
}

func (d transactionDTO) toDomain() checkin.Transaction {
	return checkin.Transaction{
		ID:        string(d.ID),
		Reference: d.Reference,
		Email:     d.Email,
		Amount:    string(d.Amount),
		Currency:  d.Currency,
		Status:    d.Status,
		CreatedAt: d.CreatedAt.Time,
	}
}
