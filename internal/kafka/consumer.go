package kafka

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader messageReader
	logger zerolog.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger.With().Str("component", "kafka-consumer").Str("topic", topic).Logger(),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume commits a message only after handler accepted it. Messages that
// cannot be decoded are logged and committed so they do not block the
// partition. A handler error stops consumption.
func (c *Consumer) Consume(ctx context.Context, handler events.Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "fetch kafka message")
		}

		event, err := events.Decode(msg.Value)
		if err != nil {
			c.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed event")
		} else if err := handler(ctx, event); err != nil {
			return errors.Wrapf(err, "handle event %s", event.Type)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, "commit kafka message")
		}
	}
}

var _ events.Consumer = (*Consumer)(nil)
