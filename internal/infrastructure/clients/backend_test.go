package clients_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/auth"
	"frontdesk/internal/domain/checkin"
	"frontdesk/internal/idempotency"
	"frontdesk/internal/infrastructure/clients"
)

type backendStub struct {
	t        *testing.T
	calls    atomic.Int32
	lastReq  atomic.Pointer[http.Request]
	handlers map[string]http.HandlerFunc
}

func newBackendStub(t *testing.T) (*backendStub, *httptest.Server) {
	stub := &backendStub{t: t, handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		stub.lastReq.Store(r.Clone(context.Background()))

		h, ok := stub.handlers[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"route not found"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	return stub, srv
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newClient(t *testing.T, url string, token string) *clients.BackendClient {
	t.Helper()

	c, err := clients.NewBackendClient(url, auth.Context{Token: token, Role: "staff"}, 2*time.Second)
	require.NoError(t, err)
	return c
}

const purchaseBody = `{
	"data": {
		"id": 17,
		"created_at": "2025-09-19T10:00:00.000000Z",
		"event": {"name": "Jazz Night"},
		"email": "guest@example.com",
		"ticket_type": "VIP",
		"quantity": "2",
		"used": "0",
		"checked_in_by": null,
		"checked_in_at": null
	}
}`

func TestLookupPurchaseByReference(t *testing.T) {
	stub, srv := newBackendStub(t)
	stub.handlers["GET /api/tickets/reference/TXN68cd3c347a069"] = respond(http.StatusOK, purchaseBody)

	c := newClient(t, srv.URL+"/api", "token-1")

	record, err := c.LookupPurchaseByReference(context.Background(), "TXN68cd3c347a069")
	require.NoError(t, err)

	assert.Equal(t, checkin.PurchaseRecord{
		ID:         "17",
		CreatedAt:  time.Date(2025, 9, 19, 10, 0, 0, 0, time.UTC),
		EventName:  "Jazz Night",
		Email:      "guest@example.com",
		TicketType: "VIP",
		Quantity:   2,
		Used:       false,
	}, *record)

	req := stub.lastReq.Load()
	assert.Equal(t, "Bearer token-1", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.NotEmpty(t, req.Header.Get("Correlation-ID"))
	assert.Empty(t, req.Header.Get("Idempotency-Key"))
	assert.EqualValues(t, 1, stub.calls.Load())
}

func TestLookupPurchaseByCode_UsedFlagVariants(t *testing.T) {
	testCases := []struct {
		name string
		body string
		used bool
	}{
		{"string one", `{"data":{"id":"a","used":"1"}}`, true},
		{"number zero", `{"data":{"id":"a","used":0}}`, false},
		{"boolean", `{"data":{"id":"a","used":true}}`, true},
		{"checked in timestamp", `{"data":{"id":"a","used":"0","checked_in_at":"2025-09-19 12:00:00","checked_in_by":"Ada"}}`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub, srv := newBackendStub(t)
			stub.handlers["GET /tickets/verify/QR-1"] = respond(http.StatusOK, tc.body)

			record, err := newClient(t, srv.URL, "t").LookupPurchaseByCode(context.Background(), "QR-1")
			require.NoError(t, err)
			assert.Equal(t, tc.used, record.Used)
			assert.Equal(t, tc.used, record.Redeemed())
		})
	}
}

func TestLookup_ErrorClassification(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Unauthenticated."}`, checkin.ErrUnauthenticated, "Unauthenticated."},
		{"forbidden", http.StatusForbidden, `{}`, checkin.ErrUnauthenticated, ""},
		{"not found", http.StatusNotFound, `{"message":"Ticket not found"}`, checkin.ErrNotFound, "Ticket not found"},
		{"conflict", http.StatusConflict, `{"error":"Already used"}`, checkin.ErrAlreadyCheckedIn, "Already used"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"message":"Invalid code"}`, checkin.ErrRejected, "Invalid code"},
		{"server", http.StatusInternalServerError, `<html>oops</html>`, checkin.ErrServer, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stub, srv := newBackendStub(t)
			stub.handlers["GET /tickets/verify/abc"] = respond(tc.status, tc.body)

			_, err := newClient(t, srv.URL, "t").LookupPurchaseByCode(context.Background(), "abc")
			require.ErrorIs(t, err, tc.want)

			var apiErr *clients.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestLookup_EmptyDataIsNotFound(t *testing.T) {
	stub, srv := newBackendStub(t)
	stub.handlers["GET /tickets/verify/abc"] = respond(http.StatusOK, `{"data":null,"message":"No purchase"}`)

	_, err := newClient(t, srv.URL, "t").LookupPurchaseByCode(context.Background(), "abc")
	assert.ErrorIs(t, err, checkin.ErrNotFound)
}

func TestMissingTokenNeverCallsBackend(t *testing.T) {
	stub, srv := newBackendStub(t)

	_, err := newClient(t, srv.URL, "").LookupPurchaseByReference(context.Background(), "TXN1")
	require.ErrorIs(t, err, checkin.ErrUnauthenticated)
	assert.EqualValues(t, 0, stub.calls.Load())
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(t, url, "t").LookupPurchaseByReference(context.Background(), "TXN1")
	assert.ErrorIs(t, err, checkin.ErrNetwork)
	assert.Contains(t, checkin.UserMessage(err), "Network error")
}

func TestCancelledContextIsNotANetworkError(t *testing.T) {
	_, srv := newBackendStub(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(t, srv.URL, "t").LookupPurchaseByReference(ctx, "TXN1")
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, checkin.ErrNetwork)
}

func TestCheckInPurchase(t *testing.T) {
	stub, srv := newBackendStub(t)
	stub.handlers["POST /tickets/17/check-in"] = respond(http.StatusOK, `{"message":"Checked in successfully"}`)

	ctx := idempotency.WithKey(context.Background(), "key-17")
	res, err := newClient(t, srv.URL, "t").CheckInPurchase(ctx, "17")
	require.NoError(t, err)
	assert.Equal(t, "Checked in successfully", res.Message)

	req := stub.lastReq.Load()
	assert.Equal(t, "key-17", req.Header.Get("Idempotency-Key"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestBookings(t *testing.T) {
	stub, srv := newBackendStub(t)
	stub.handlers["GET /bookings/reference/BK-9"] = respond(http.StatusOK, `{"data":{
		"id": 9, "reference": "BK-9", "name": "Grace Hopper", "email": "grace@example.com",
		"room": {"name": "Deluxe 204"}, "apartment": {"title": "Sea View"},
		"check_in": "2025-10-01", "check_out": "2025-10-04", "status": "Confirmed"
	}}`)
	stub.handlers["POST /bookings/9/check-in"] = respond(http.StatusOK, `{"message":"Guest checked in"}`)
	stub.handlers["POST /bookings/9/check-out"] = respond(http.StatusCreated, ``)

	c := newClient(t, srv.URL, "t")
	ctx := context.Background()

	booking, err := c.LookupBookingByReference(ctx, "BK-9")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", booking.GuestName)
	assert.Equal(t, "Deluxe 204", booking.Room)
	assert.Equal(t, "Sea View", booking.Apartment)
	assert.Equal(t, checkin.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC), booking.CheckOutDate)
	assert.False(t, booking.Redeemed())

	res, err := c.CheckInBooking(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, "Guest checked in", res.Message)

	_, err = c.CheckOutBooking(ctx, "9")
	require.NoError(t, err)
}

func TestRequestEditor(t *testing.T) {
	stub, srv := newBackendStub(t)
	stub.handlers["GET /tickets/verify/x"] = respond(http.StatusOK, `{"data":{"id":1}}`)

	c, err := clients.NewBackendClient(srv.URL, auth.Context{Token: "t"}, time.Second,
		clients.WithRequestEditor(func(ctx context.Context, req *http.Request) error {
			req.Header.Set("X-Station", "gate-1")
			return nil
		}),
	)
	require.NoError(t, err)

	_, err = c.LookupPurchaseByCode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "gate-1", stub.lastReq.Load().Header.Get("X-Station"))
}

func TestNewBackendClient_RejectsRelativeURL(t *testing.T) {
	_, err := clients.NewBackendClient("/api", auth.Context{Token: "t"}, time.Second)
	assert.Error(t, err)
}
