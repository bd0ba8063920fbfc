package events

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lithammer/shortuuid/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"frontdesk/internal/observability"
)

const correlationIDKey = "correlation_id"

func TracingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := otel.GetTextMapPropagator().Extract(msg.Context(), propagation.MapCarrier(msg.Metadata))

		ctx, span := observability.Start(
			ctx,
			"handle "+message.HandlerNameFromCtx(msg.Context()),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.destination", message.SubscribeTopicFromCtx(msg.Context())),
				attribute.String("messaging.message_id", msg.UUID),
			),
		)
		defer span.End()

		msg.SetContext(ctx)

		msgs, err := next(msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		return msgs, err
	}
}

func CorrelationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := msg.Metadata.Get(correlationIDKey)
		if correlationID == "" {
			correlationID = "gen_" + shortuuid.New()
		}

		ctx := log.ContextWithCorrelationID(msg.Context(), correlationID)
		ctx = log.ToContext(ctx, logrus.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"message_uuid":   msg.UUID,
		}))

		msg.SetContext(ctx)

		return next(msg)
	}
}

func LoggingMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		logger := log.FromContext(msg.Context()).
			WithField("handler", message.HandlerNameFromCtx(msg.Context()))

		logger.
			WithField("metadata", msg.Metadata).
			Info("Handling a message")

		msgs, err := next(msg)
		if err != nil {
			logger.
				WithField("payload", string(msg.Payload)).
				WithError(err).
				Error("Message handling error")
		}

		return msgs, err
	}
}

// SkipMarshallingErrorsMiddleware acks messages whose payload can never be decoded.
// It sits below Retry so malformed payloads are not retried.
func SkipMarshallingErrorsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := next(msg)
		if err == nil {
			return msgs, nil
		}

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			log.FromContext(msg.Context()).
				WithError(err).
				Warn("Skipping message that cannot be unmarshalled")
			return nil, nil
		}

		return msgs, err
	}
}

var (
	messagesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "frontdesk",
		Name:      "messages_processed_total",
		Help:      "Total number of messages processed",
	}, []string{"topic", "handler"})
	messagesProcessingFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "frontdesk",
		Name:      "messages_processing_failed_total",
		Help:      "Total number of messages processing failures",
	}, []string{"topic", "handler"})
	messagesProcessingDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  "frontdesk",
		Name:       "messages_processing_duration_seconds",
		Help:       "Duration of message processing in seconds",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"topic", "handler"})
)

func MetricsMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		topic := message.SubscribeTopicFromCtx(msg.Context())
		handler := message.HandlerNameFromCtx(msg.Context())

		start := time.Now()
		msgs, err := next(msg)

		messagesProcessingDuration.WithLabelValues(topic, handler).Observe(time.Since(start).Seconds())
		messagesProcessedTotal.WithLabelValues(topic, handler).Inc()
		if err != nil {
			messagesProcessingFailedTotal.WithLabelValues(topic, handler).Inc()
		}

		return msgs, err
	}
}
