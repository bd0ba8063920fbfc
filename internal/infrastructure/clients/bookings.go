package clients

import (
	"context"
	"net/http"

	"frontdesk/internal/domain/checkin"
)

func (c *BackendClient) LookupBookingByReference(ctx context.Context, ref checkin.TransactionReference) (*checkin.BookingRecord, error) {
	const op = "lookup booking by reference"

	env, err := c.do(ctx, op, http.MethodGet, c.endpoint("bookings", "reference", ref.String()), false)
	if err != nil {
		return nil, err
	}

	var dto bookingDTO
	if err := decodeData(op, env, &dto); err != nil {
		return nil, err
	}

	record := dto.toDomain()
	return &record, nil
}

func (c *BackendClient) CheckInBooking(ctx context.Context, bookingID string) (*CheckInResult, error) {
	env, err := c.do(ctx, "check in booking", http.MethodPost, c.endpoint("bookings", bookingID, "check-in"), true)
	if err != nil {
		return nil, err
	}

	return &CheckInResult{Message: env.Message}, nil
}

func (c *BackendClient) CheckOutBooking(ctx context.Context, bookingID string) (*CheckInResult, error) {
	env, err := c.do(ctx, "check out booking", http.MethodPost, c.endpoint("bookings", bookingID, "check-out"), true)
	if err != nil {
		return nil, err
	}

	return &CheckInResult{Message: env.Message}, nil
}
