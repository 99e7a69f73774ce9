package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// ParseOutcome accepts only the two statuses a payment token can be resolved to.
func ParseOutcome(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case BookingStatusConfirmed, BookingStatusCancelled:
		return st, nil
	case BookingStatusPending:
		return "", InvalidRequest("cannot set pending while resolving a payment")
	default:
		return "", InvalidRequest("unknown payment status %q", s)
	}
}

// TicketStatusFor returns the ticket status implied by a resolved booking line.
func (s BookingStatus) TicketStatusFor() (TicketStatus, bool) {
	switch s {
	case BookingStatusConfirmed:
		return TicketStatusSold, true
	case BookingStatusCancelled:
		return TicketStatusAvailable, true
	default:
		return "", false
	}
}

// BookingLine ties one ticket to a reservation attempt. Every line created by
// the same reservation carries the same PaymentToken.
type BookingLine struct {
	ID           string
	TicketID     string
	Status       BookingStatus
	PaymentToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Ticket is populated when the line is loaded together with its ticket.
	Ticket *Ticket
}
