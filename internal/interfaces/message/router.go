package message

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"

	"frontdesk/internal/entities"
	"frontdesk/internal/interfaces/message/events"
)

type EventRepository interface {
	SaveEvent(ctx context.Context, event entities.StoredEvent) error
}

func NewRouter(
	watermillLogger watermill.LoggerAdapter,
	splitterSubscriber message.Subscriber,
	saverSubscriber message.Subscriber,
	redisPublisher message.Publisher,

	eventHandler *events.Handler,
	eventProcessorConfig cqrs.EventProcessorConfig,

	eventsRepo EventRepository,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	if err := initMiddlewares(watermillLogger, router, redisPublisher); err != nil {
		return nil, err
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		return nil, err
	}

	err = eventProcessor.AddHandlers(eventHandler.EventHandlers()...)
	if err != nil {
		return nil, err
	}

	router.AddNoPublisherHandler(
		"events_splitter",
		events.ExternalTopic,
		splitterSubscriber,
		func(msg *message.Message) error {
			eventName := events.Marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("cannot get event name from message")
			}

			return redisPublisher.Publish(events.SplitTopic(eventName), msg)
		},
	)

	router.AddNoPublisherHandler(
		"events_saver",
		events.ExternalTopic,
		saverSubscriber,
		func(msg *message.Message) error {
			type Event struct {
				Header entities.EventHeader `json:"header"`
			}

			var event Event
			err := events.Marshaler.Unmarshal(msg, &event)
			if err != nil {
				return err
			}

			eventName := events.Marshaler.NameFromMessage(msg)
			if eventName == "" {
				return fmt.Errorf("cannot get event name from message")
			}

			id, err := uuid.Parse(event.Header.Id)
			if err != nil {
				return fmt.Errorf("failed to parse event id: %w", err)
			}

			return eventsRepo.SaveEvent(
				msg.Context(),
				entities.StoredEvent{
					Id:          id,
					PublishedAt: event.Header.PublishedAt,
					EventName:   eventName,
					Station:     event.Header.Station,
					Payload:     msg.Payload,
				},
			)
		},
	)

	return router, nil
}

func initMiddlewares(
	watermillLogger watermill.LoggerAdapter,
	router *message.Router,
	poisonPublisher message.Publisher,
) error {
	poisonQueue, err := middleware.PoisonQueue(poisonPublisher, PoisonQueueTopic)
	if err != nil {
		return err
	}

	router.AddMiddleware(events.TracingMiddleware)
	router.AddMiddleware(middleware.Recoverer)
	router.AddMiddleware(events.CorrelationIDMiddleware)
	router.AddMiddleware(events.LoggingMiddleware)

	// messages still failing after the retries below end up in the poison queue
	router.AddMiddleware(poisonQueue)

	router.AddMiddleware(middleware.Retry{
		MaxRetries:      10,
		InitialInterval: time.Millisecond * 100,
		MaxInterval:     time.Second,
		Multiplier:      2,
		Logger:          watermillLogger,
	}.Middleware)

	// skip marshalling errors before retrying
	router.AddMiddleware(events.SkipMarshallingErrorsMiddleware)
	router.AddMiddleware(events.MetricsMiddleware)

	return nil
}
