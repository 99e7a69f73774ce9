// Package rabbitmq relays booking events through a durable RabbitMQ queue on
// the default exchange.
package rabbitmq

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/events"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const prefetch = 50

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dial opens a connection and a channel and declares the queue. Declaring is
// idempotent so publisher and consumer both do it.
func dial(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial rabbitmq")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, errors.Wrap(err, "open channel")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, errors.Wrapf(err, "declare queue %s", queue)
	}
	return conn, ch, nil
}

type Publisher struct {
	conn   *amqp.Connection
	ch     channel
	queue  string
	logger zerolog.Logger
}

func NewPublisher(url, queue string, logger zerolog.Logger) (*Publisher, error) {
	conn, ch, err := dial(url, queue)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		conn:   conn,
		ch:     ch,
		queue:  queue,
		logger: logger.With().Str("component", "rabbitmq-publisher").Str("queue", queue).Logger(),
	}, nil
}

// Publish sends a persistent message. The key travels as the message id.
func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return errors.Wrap(err, "publish to rabbitmq")
	}
	p.logger.Debug().Str("key", key).Msg("published to rabbitmq")
	return nil
}

func (p *Publisher) Close() error {
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

type Consumer struct {
	url    string
	queue  string
	logger zerolog.Logger
	conn   *amqp.Connection
}

func NewConsumer(url, queue string, logger zerolog.Logger) *Consumer {
	return &Consumer{
		url:    url,
		queue:  queue,
		logger: logger.With().Str("component", "rabbitmq-consumer").Str("queue", queue).Logger(),
	}
}

// Consume dials the broker and feeds deliveries to handler until ctx is done
// or the broker closes the channel.
func (c *Consumer) Consume(ctx context.Context, handler events.Handler) error {
	conn, ch, err := dial(c.url, c.queue)
	if err != nil {
		return err
	}
	c.conn = conn
	defer ch.Close()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		c.logger.Warn().Err(err).Msg("set qos failed")
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume queue")
	}
	return c.handle(ctx, deliveries, handler)
}

// handle acks handled deliveries. Malformed ones are rejected without
// requeue; a handler failure requeues the delivery and stops.
func (c *Consumer) handle(ctx context.Context, deliveries <-chan amqp.Delivery, handler events.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}

			event, err := events.Decode(d.Body)
			if err != nil {
				c.logger.Warn().Err(err).Uint64("delivery_tag", d.DeliveryTag).Msg("rejecting malformed event")
				_ = d.Nack(false, false)
				continue
			}
			if err := handler(ctx, event); err != nil {
				_ = d.Nack(false, true)
				return errors.Wrapf(err, "handle event %s", event.Type)
			}
			if err := d.Ack(false); err != nil {
				return errors.Wrap(err, "ack delivery")
			}
		}
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

var (
	_ events.Publisher = (*Publisher)(nil)
	_ events.Consumer  = (*Consumer)(nil)
)
