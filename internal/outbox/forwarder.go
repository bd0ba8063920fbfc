package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
)

type ForwarderConfig struct {
	PollInterval time.Duration
}

// Forwarder moves committed outbox messages from Postgres to the message broker.
type Forwarder struct {
	fwd *forwarder.Forwarder
}

func NewForwarder(
	db *sqlx.DB,
	publisher message.Publisher,
	logger watermill.LoggerAdapter,
	config ForwarderConfig,
) (*Forwarder, error) {
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}

	subscriber, err := watermillSQL.NewSubscriber(
		db,
		watermillSQL.SubscriberConfig{
			SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
			PollInterval:     config.PollInterval,
			ResendInterval:   config.PollInterval,
			RetryInterval:    config.PollInterval,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox subscriber: %w", err)
	}

	if err := subscriber.SubscribeInitialize(Topic); err != nil {
		return nil, fmt.Errorf("failed to initialize outbox topic: %w", err)
	}

	fwd, err := forwarder.NewForwarder(subscriber, publisher, logger, forwarder.Config{
		ForwarderTopic: Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarder: %w", err)
	}

	return &Forwarder{fwd: fwd}, nil
}

// Run blocks until ctx is done.
func (f *Forwarder) Run(ctx context.Context) error {
	return f.fwd.Run(ctx)
}

func (f *Forwarder) Running() chan struct{} {
	return f.fwd.Running()
}

func (f *Forwarder) Close() error {
	return f.fwd.Close()
}
