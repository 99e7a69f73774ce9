package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/ticketbooking/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp.Publishing
	err      error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.exchange, c.key = exchange, key
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error { return nil }

type ackRecorder struct {
	acked    []uint64
	rejected []uint64
	requeued []uint64
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued = append(a.requeued, tag)
	} else {
		a.rejected = append(a.rejected, tag)
	}
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: "ticket.bookings", logger: zerolog.Nop()}

	require.NoError(t, p.Publish(context.Background(), "tok", []byte(`{"type":"booking.reserved"}`)))

	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "", ch.exchange)
	assert.Equal(t, "ticket.bookings", ch.key)
	assert.Equal(t, "tok", ch.msgs[0].MessageId)
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)
}

func TestPublisher_PublishError(t *testing.T) {
	p := &Publisher{ch: &fakeChannel{err: amqp.ErrClosed}, queue: "q", logger: zerolog.Nop()}

	err := p.Publish(context.Background(), "tok", []byte(`{}`))

	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestConsumer_Handle(t *testing.T) {
	acks := &ackRecorder{}
	deliveries := make(chan amqp.Delivery, 3)
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte(`nope`)}
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte(`{"type":"booking.confirmed","paymentToken":"tok"}`)}
	close(deliveries)

	c := NewConsumer("amqp://unused", "q", zerolog.Nop())
	var handled []events.BookingEvent
	err := c.handle(context.Background(), deliveries, func(_ context.Context, ev events.BookingEvent) error {
		handled = append(handled, ev)
		return nil
	})

	assert.ErrorContains(t, err, "deliveries channel closed")
	require.Len(t, handled, 1)
	assert.Equal(t, events.TypeBookingConfirmed, handled[0].Type)
	assert.Equal(t, []uint64{1}, acks.rejected)
	assert.Equal(t, []uint64{2}, acks.acked)
}

func TestConsumer_HandleRequeuesOnHandlerError(t *testing.T) {
	acks := &ackRecorder{}
	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 9, Body: []byte(`{"type":"booking.cancelled","paymentToken":"tok"}`)}

	c := NewConsumer("amqp://unused", "q", zerolog.Nop())
	err := c.handle(context.Background(), deliveries, func(context.Context, events.BookingEvent) error {
		return errors.New("downstream unavailable")
	})

	assert.ErrorContains(t, err, "downstream unavailable")
	assert.Equal(t, []uint64{9}, acks.requeued)
	assert.Empty(t, acks.acked)
}

func TestConsumer_HandleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConsumer("amqp://unused", "q", zerolog.Nop())
	err := c.handle(ctx, make(chan amqp.Delivery), func(context.Context, events.BookingEvent) error { return nil })

	assert.NoError(t, err)
	assert.NoError(t, c.Close())
}
