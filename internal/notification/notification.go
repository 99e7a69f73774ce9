// Package notification tells payment holders what happened to their booking.
// Delivery is a structured log line; a mail or push gateway would plug in here.
package notification

import (
	"context"

	"github.com/Domenick1991/ticketbooking/internal/events"
	"github.com/rs/zerolog"
)

type Sender struct {
	logger zerolog.Logger
}

func NewSender(logger zerolog.Logger) *Sender {
	return &Sender{logger: logger.With().Str("component", "notification").Logger()}
}

func (s *Sender) Send(ctx context.Context, event events.BookingEvent) error {
	s.logger.Info().
		Str("payment_token", event.PaymentToken).
		Str("event_type", event.Type).
		Strs("ticket_ids", event.TicketIDs).
		Msg(Subject(event.Type))
	return nil
}

// Subject is the human readable headline of a booking event.
func Subject(eventType string) string {
	switch eventType {
	case events.TypeBookingReserved:
		return "Your tickets are reserved, complete the payment to keep them"
	case events.TypeBookingConfirmed:
		return "Payment received, your tickets are confirmed"
	case events.TypeBookingCancelled:
		return "Your reservation was cancelled and the tickets released"
	default:
		return "Booking update"
	}
}
