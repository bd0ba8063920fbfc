package event_publisher

import (
	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lithammer/shortuuid/v3"
)

const correlationIDKey = "correlation_id"

// CorrelationPublisherDecorator stamps every outgoing message with the correlation id
// of the request that produced it.
type CorrelationPublisherDecorator struct {
	message.Publisher
}

func (c CorrelationPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.Metadata.Get(correlationIDKey) != "" {
			continue
		}

		correlationID := log.CorrelationIDFromContext(msg.Context())
		if correlationID == "" {
			correlationID = "gen_" + shortuuid.New()
		}
		msg.Metadata.Set(correlationIDKey, correlationID)
	}

	return c.Publisher.Publish(topic, messages...)
}
