package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"frontdesk/internal/entities"
)

type AttendanceReadModel interface {
	OnPurchaseVerified(ctx context.Context, event *entities.PurchaseVerified_v1) error
	OnVerificationFailed(ctx context.Context, event *entities.VerificationFailed_v1) error
	OnPurchaseCheckedIn(ctx context.Context, event *entities.PurchaseCheckedIn_v1) error
	OnBookingCheckedIn(ctx context.Context, event *entities.BookingCheckedIn_v1) error
	OnBookingCheckedOut(ctx context.Context, event *entities.BookingCheckedOut_v1) error
}

type Handler struct {
	attendance AttendanceReadModel
}

func NewHandler(attendance AttendanceReadModel) *Handler {
	if attendance == nil {
		panic("missing attendance read model")
	}

	return &Handler{attendance: attendance}
}

func (h *Handler) EventHandlers() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler("attendance_read_model.on_purchase_verified", h.attendance.OnPurchaseVerified),
		cqrs.NewEventHandler("attendance_read_model.on_verification_failed", h.attendance.OnVerificationFailed),
		cqrs.NewEventHandler("attendance_read_model.on_purchase_checked_in", h.attendance.OnPurchaseCheckedIn),
		cqrs.NewEventHandler("attendance_read_model.on_booking_checked_in", h.attendance.OnBookingCheckedIn),
		cqrs.NewEventHandler("attendance_read_model.on_booking_checked_out", h.attendance.OnBookingCheckedOut),
	}
}
