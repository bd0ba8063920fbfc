package desk

import (
	"context"

	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/entities"
	"frontdesk/internal/infrastructure/clients"
	"frontdesk/internal/infrastructure/scanner"
	"frontdesk/internal/notify"
)

//go:generate mockgen -destination=mocks/backend_mock.go -package=mocks frontdesk/internal/application/usecases/desk Backend
type Backend interface {
	LookupPurchaseByCode(ctx context.Context, code string) (*checkin.PurchaseRecord, error)
	LookupPurchaseByReference(ctx context.Context, ref checkin.TransactionReference) (*checkin.PurchaseRecord, error)
	LookupBookingByReference(ctx context.Context, ref checkin.TransactionReference) (*checkin.BookingRecord, error)
	CheckInPurchase(ctx context.Context, purchaseID string) (*clients.CheckInResult, error)
	CheckInBooking(ctx context.Context, bookingID string) (*clients.CheckInResult, error)
	CheckOutBooking(ctx context.Context, bookingID string) (*clients.CheckInResult, error)
}

//go:generate mockgen -destination=mocks/scanner_mock.go -package=mocks frontdesk/internal/application/usecases/desk Scanner
type Scanner interface {
	Start(ctx context.Context, onResult scanner.ResultFunc, onError scanner.ErrorFunc) error
	Stop()
}

//go:generate mockgen -destination=mocks/history_mock.go -package=mocks frontdesk/internal/application/usecases/desk History
type History interface {
	Record(ctx context.Context, entry checkin.HistoryEntry) error
	RecordWithEvent(ctx context.Context, entry checkin.HistoryEntry, event entities.Event) error
}

//go:generate mockgen -destination=mocks/guard_mock.go -package=mocks frontdesk/internal/application/usecases/desk Guard
type Guard interface {
	Acquire(ctx context.Context, kind checkin.Kind, recordID string) (func(context.Context) error, error)
}

//go:generate mockgen -destination=mocks/event_publisher_mock.go -package=mocks frontdesk/internal/application/usecases/desk EventPublisher
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

type Notifier interface {
	Success(ctx context.Context, message string) notify.Notification
	Error(ctx context.Context, err error) notify.Notification
	Notify(ctx context.Context, level notify.Level, message string) notify.Notification
}

type nopHistory struct{}

func (nopHistory) Record(context.Context, checkin.HistoryEntry) error { return nil }
func (nopHistory) RecordWithEvent(context.Context, checkin.HistoryEntry, entities.Event) error {
	return nil
}

type nopGuard struct{}

func (nopGuard) Acquire(context.Context, checkin.Kind, string) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, any) error { return nil }
