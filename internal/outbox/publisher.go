package outbox

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"

	"frontdesk/internal/observability"
)

// Topic is the Postgres topic holding messages waiting to be forwarded to Redis.
const Topic = "events_to_forward"

// NewPublisher returns a publisher that writes into the outbox table through tx,
// so messages are committed together with the rest of the transaction.
func NewPublisher(
	tx watermillSQL.ContextExecutor,
	logger watermill.LoggerAdapter,
) (message.Publisher, error) {
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox publisher: %w", err)
	}

	return forwarder.NewPublisher(
		observability.PublisherWithTracing{Publisher: publisher},
		forwarder.PublisherConfig{ForwarderTopic: Topic},
	), nil
}
