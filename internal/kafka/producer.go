package kafka

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes booking events to a single topic.
type Producer struct {
	brokers []string
	writer  messageWriter
	logger  zerolog.Logger
}

func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		logger:  logger.With().Str("component", "kafka-producer").Str("topic", topic).Logger(),
	}
}

// Publish writes one message keyed by payment token, so every event of a
// token lands on the same partition.
func (p *Producer) Publish(ctx context.Context, key string, payload []byte) error {
	message := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return errors.Wrap(err, "write message to kafka")
	}

	p.logger.Debug().Str("key", key).Msg("published to kafka")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return errors.Wrap(err, "connect to kafka")
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return errors.Wrap(err, "read partitions")
	}
	return nil
}

var _ events.Publisher = (*Producer)(nil)
