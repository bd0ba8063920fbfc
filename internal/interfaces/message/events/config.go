package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"frontdesk/internal/entities"
)

var Marshaler = cqrs.JSONMarshaler{
	GenerateName: cqrs.StructName,
}

func GenerateSubscribeTopic(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
	handlerEvent := params.EventHandler.NewEvent()
	event, ok := handlerEvent.(entities.Event)
	if !ok {
		return "", fmt.Errorf("invalid event type: %T doesn't implement entities.Event", handlerEvent)
	}

	if event.IsInternal() {
		return internalPrefix + params.EventName, nil
	}
	return SplitTopic(params.EventName), nil
}

func NewEventProcessorConfig(
	redisClient *redis.Client,
	watermillLogger watermill.LoggerAdapter,
) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		GenerateSubscribeTopic: GenerateSubscribeTopic,
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        redisClient,
				ConsumerGroup: "svc-frontdesk." + params.HandlerName,
			}, watermillLogger)
		},
		Marshaler: Marshaler,
		Logger:    watermillLogger,
	}
}
