// Package seed fills an empty inventory with the default ticket tiers.
package seed

import (
	"context"
	"fmt"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/pkg/errors"
)

type Tier struct {
	Type       domain.TicketType
	NamePrefix string
	Count      int
	Price      domain.Price
}

var DefaultTiers = []Tier{
	{Type: domain.TicketTypeVIP, NamePrefix: "VIP Ticket", Count: 50, Price: "100"},
	{Type: domain.TicketTypeFrontRow, NamePrefix: "Front Row Ticket", Count: 100, Price: "50"},
	{Type: domain.TicketTypeGeneral, NamePrefix: "General Admission", Count: 500, Price: "10"},
}

type Creator interface {
	CreateIfAbsent(ctx context.Context, tickets []domain.Ticket) (int, error)
}

// Tickets expands tiers into tickets named "<prefix> #<n>", numbered from 1.
func Tickets(tiers []Tier) []domain.Ticket {
	var out []domain.Ticket
	for _, tier := range tiers {
		for i := 1; i <= tier.Count; i++ {
			out = append(out, domain.Ticket{
				Name:     fmt.Sprintf("%s #%d", tier.NamePrefix, i),
				Type:     tier.Type,
				Status:   domain.TicketStatusAvailable,
				Price:    tier.Price,
				Currency: domain.DefaultCurrency,
			})
		}
	}
	return out
}

// Run inserts the tickets of every tier that do not exist yet, one tier per
// batch. Running it twice creates nothing the second time.
func Run(ctx context.Context, repo Creator, tiers []Tier) (int, error) {
	created := 0
	for _, tier := range tiers {
		n, err := repo.CreateIfAbsent(ctx, Tickets([]Tier{tier}))
		created += n
		if err != nil {
			return created, errors.Wrapf(err, "seed %s tickets", tier.Type)
		}
	}
	return created, nil
}
