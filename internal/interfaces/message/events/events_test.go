package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/entities"
	"frontdesk/internal/interfaces/message/events"
)

type topicRecorder struct {
	mu     sync.Mutex
	topics []string
}

func (p *topicRecorder) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for range messages {
		p.topics = append(p.topics, topic)
	}
	return nil
}

func (p *topicRecorder) Close() error { return nil }

func TestEventBus_Topics(t *testing.T) {
	pub := &topicRecorder{}
	bus, err := events.NewEventBus(pub, watermill.NopLogger{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, entities.PurchaseVerified_v1{Header: entities.NewEventHeader("gate-1")}))
	require.NoError(t, bus.Publish(ctx, entities.PurchaseCheckedIn_v1{Header: entities.NewEventHeader("gate-1")}))

	assert.Equal(t, []string{
		"internal-events.svc-frontdesk.PurchaseVerified_v1",
		"events",
	}, pub.topics)
}

type noopAttendance struct{}

func (noopAttendance) OnPurchaseVerified(context.Context, *entities.PurchaseVerified_v1) error {
	return nil
}
func (noopAttendance) OnVerificationFailed(context.Context, *entities.VerificationFailed_v1) error {
	return nil
}
func (noopAttendance) OnPurchaseCheckedIn(context.Context, *entities.PurchaseCheckedIn_v1) error {
	return nil
}
func (noopAttendance) OnBookingCheckedIn(context.Context, *entities.BookingCheckedIn_v1) error {
	return nil
}
func (noopAttendance) OnBookingCheckedOut(context.Context, *entities.BookingCheckedOut_v1) error {
	return nil
}

func TestGenerateSubscribeTopic(t *testing.T) {
	want := map[string]string{
		"attendance_read_model.on_purchase_verified":   "internal-events.svc-frontdesk.PurchaseVerified_v1",
		"attendance_read_model.on_verification_failed": "internal-events.svc-frontdesk.VerificationFailed_v1",
		"attendance_read_model.on_purchase_checked_in": "events.PurchaseCheckedIn_v1",
		"attendance_read_model.on_booking_checked_in":  "events.BookingCheckedIn_v1",
		"attendance_read_model.on_booking_checked_out": "events.BookingCheckedOut_v1",
	}

	handlers := events.NewHandler(noopAttendance{}).EventHandlers()
	require.Len(t, handlers, len(want))

	for _, h := range handlers {
		topic, err := events.GenerateSubscribeTopic(cqrs.EventProcessorGenerateSubscribeTopicParams{
			EventName:    events.Marshaler.Name(h.NewEvent()),
			EventHandler: h,
		})
		require.NoError(t, err)
		assert.Equal(t, want[h.HandlerName()], topic, h.HandlerName())
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	var seen string
	handler := events.CorrelationIDMiddleware(func(msg *message.Message) ([]*message.Message, error) {
		seen = log.CorrelationIDFromContext(msg.Context())
		return nil, nil
	})

	msg := message.NewMessage(watermill.NewUUID(), nil)
	msg.Metadata.Set("correlation_id", "corr-1")
	_, err := handler(msg)
	require.NoError(t, err)
	assert.Equal(t, "corr-1", seen)

	_, err = handler(message.NewMessage(watermill.NewUUID(), nil))
	require.NoError(t, err)
	assert.Contains(t, seen, "gen_")
}

func TestSkipMarshallingErrorsMiddleware(t *testing.T) {
	decode := events.SkipMarshallingErrorsMiddleware(func(msg *message.Message) ([]*message.Message, error) {
		var v map[string]any
		return nil, json.Unmarshal(msg.Payload, &v)
	})

	_, err := decode(message.NewMessage("1", []byte("{not json")))
	assert.NoError(t, err)

	failing := events.SkipMarshallingErrorsMiddleware(func(msg *message.Message) ([]*message.Message, error) {
		return nil, errors.New("database down")
	})

	_, err = failing(message.NewMessage("2", []byte("{}")))
	assert.EqualError(t, err, "database down")
}
