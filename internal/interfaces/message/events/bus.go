package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"

	"frontdesk/internal/entities"
)

const (
	// ExternalTopic collects every external event before it is split per event name.
	ExternalTopic = "events"

	internalPrefix = "internal-events.svc-frontdesk."
	externalPrefix = ExternalTopic + "."
)

func NewEventBus(
	pub message.Publisher,
	logger watermill.LoggerAdapter,
) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				event, ok := params.Event.(entities.Event)
				if !ok {
					return "", fmt.Errorf("invalid event type: %T doesn't implement entities.Event", params.Event)
				}

				if event.IsInternal() {
					return internalPrefix + params.EventName, nil
				}
				return ExternalTopic, nil
			},
			Marshaler: Marshaler,
			Logger:    logger,
		},
	)
}

// SplitTopic is the per-event topic external events are re-published to.
func SplitTopic(eventName string) string {
	return externalPrefix + eventName
}
