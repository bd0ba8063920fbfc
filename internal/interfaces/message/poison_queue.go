package message

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

const PoisonQueueTopic = "svc-frontdesk.poison_queue"

var ErrPoisonedMessageNotFound = errors.New("message not found in poison queue")

type PoisonedMessage struct {
	ID      string
	Handler string
	Topic   string
	Reason  string
}

// PoisonQueue browses the poison queue by cycling through it: every message is
// republished to the same topic until the first one comes around again.
type PoisonQueue struct {
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     watermill.LoggerAdapter
	timeout    time.Duration
}

func NewPoisonQueue(subscriber message.Subscriber, publisher message.Publisher, logger watermill.LoggerAdapter) *PoisonQueue {
	return &PoisonQueue{
		subscriber: subscriber,
		publisher:  publisher,
		logger:     logger,
		timeout:    10 * time.Second,
	}
}

func (q *PoisonQueue) Preview(ctx context.Context) ([]PoisonedMessage, error) {
	var res []PoisonedMessage

	err := q.cycle(ctx, func(msg *message.Message) bool {
		res = append(res, PoisonedMessage{
			ID:      msg.UUID,
			Handler: msg.Metadata.Get(middleware.PoisonedHandlerKey),
			Topic:   msg.Metadata.Get(middleware.PoisonedTopicKey),
			Reason:  msg.Metadata.Get(middleware.ReasonForPoisonedKey),
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (q *PoisonQueue) Remove(ctx context.Context, id string) error {
	removed := false

	err := q.cycle(ctx, func(msg *message.Message) bool {
		if msg.UUID == id {
			removed = true
			return false
		}
		return true
	})
	if err != nil {
		return err
	}

	if !removed {
		return ErrPoisonedMessageNotFound
	}
	return nil
}

// cycle passes each message once to visit. It stops after a full round, after
// visit drops a message, or when the queue stays empty until the timeout.
func (q *PoisonQueue) cycle(ctx context.Context, visit func(msg *message.Message) (keep bool)) error {
	router, err := message.NewRouter(message.RouterConfig{}, q.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		firstID string
		done    bool
	)

	router.AddHandler(
		"poison_queue_browser",
		PoisonQueueTopic,
		q.subscriber,
		PoisonQueueTopic,
		q.publisher,
		func(msg *message.Message) ([]*message.Message, error) {
			mu.Lock()
			defer mu.Unlock()

			if done {
				return nil, errors.New("poison queue already browsed")
			}

			if firstID == "" {
				firstID = msg.UUID
			} else if msg.UUID == firstID {
				done = true
				cancel()
				return []*message.Message{msg}, nil
			}

			if !visit(msg) {
				done = true
				cancel()
				return nil, nil
			}

			return []*message.Message{msg}, nil
		},
	)

	return router.Run(ctx)
}
