package domain

import "time"

const DefaultCurrency = "USD"

type TicketType string

const (
	TicketTypeGeneral  TicketType = "general"
	TicketTypeVIP      TicketType = "vip"
	TicketTypeFrontRow TicketType = "front_row"
)

// TicketTypes lists every ticket type in display order.
var TicketTypes = []TicketType{TicketTypeVIP, TicketTypeFrontRow, TicketTypeGeneral}

// ParseTicketType accepts the lowercase wire value of a ticket type.
func ParseTicketType(s string) (TicketType, error) {
	switch t := TicketType(s); t {
	case TicketTypeGeneral, TicketTypeVIP, TicketTypeFrontRow:
		return t, nil
	default:
		return "", InvalidRequest("unknown ticket type %q", s)
	}
}

type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusSold      TicketStatus = "sold"
)

type Ticket struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      TicketType   `json:"type"`
	Status    TicketStatus `json:"status"`
	Price     Price        `json:"price"`
	Currency  string       `json:"currency"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (t Ticket) Available() bool {
	return t.Status == TicketStatusAvailable
}
