package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/pkg/errors"
)

const (
	TypeBookingReserved  = "booking.reserved"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload written to the outbox and relayed to the broker.
type BookingEvent struct {
	Type         string    `json:"type"`
	PaymentToken string    `json:"paymentToken"`
	TicketIDs    []string  `json:"ticketIds"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// TypeForOutcome names the event emitted when a token is resolved.
func TypeForOutcome(outcome domain.BookingStatus) string {
	if outcome == domain.BookingStatusConfirmed {
		return TypeBookingConfirmed
	}
	return TypeBookingCancelled
}

func NewBookingEvent(eventType, token string, ticketIDs []string, status domain.BookingStatus) BookingEvent {
	return BookingEvent{
		Type:         eventType,
		PaymentToken: token,
		TicketIDs:    ticketIDs,
		Status:       string(status),
		OccurredAt:   time.Now().UTC(),
	}
}

// Decode parses a relayed event. Messages without a type or token are rejected.
func Decode(data []byte) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return BookingEvent{}, errors.Wrap(err, "decode booking event")
	}
	if event.Type == "" || event.PaymentToken == "" {
		return BookingEvent{}, errors.New("booking event without type or payment token")
	}
	return event, nil
}

// Publisher delivers an encoded event to the broker. Events of one payment
// token share a key so they stay ordered.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

type Handler func(ctx context.Context, event BookingEvent) error

// Consumer feeds broker messages to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
