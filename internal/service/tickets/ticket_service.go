package tickets

import (
	"context"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/rs/zerolog"
)

type TicketUseCase interface {
	List(ctx context.Context, ticketType *domain.TicketType) ([]domain.Ticket, error)
}

type TicketCache interface {
	GetTickets(ctx context.Context, ticketType *domain.TicketType) ([]domain.Ticket, error)
	SetTickets(ctx context.Context, ticketType *domain.TicketType, tickets []domain.Ticket) error
}

type TicketService struct {
	repo   repository.TicketRepository
	cache  TicketCache
	logger zerolog.Logger
}

// NewTicketService builds the listing service. cache may be nil.
func NewTicketService(repo repository.TicketRepository, cache TicketCache, logger zerolog.Logger) *TicketService {
	return &TicketService{repo: repo, cache: cache, logger: logger.With().Str("component", "tickets").Logger()}
}

// List is a plain read with no locking. Statuses may be stale by the time the
// caller acts on them; Reserve is what decides availability.
func (s *TicketService) List(ctx context.Context, ticketType *domain.TicketType) ([]domain.Ticket, error) {
	if s.cache != nil {
		cached, err := s.cache.GetTickets(ctx, ticketType)
		if err != nil {
			s.logger.Warn().Err(err).Msg("tickets cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	tickets, err := s.repo.List(ctx, ticketType)
	if err != nil {
		return nil, domain.StorageFailure("list tickets", err)
	}
	if s.cache != nil {
		if err := s.cache.SetTickets(ctx, ticketType, tickets); err != nil {
			s.logger.Warn().Err(err).Msg("tickets cache write failed")
		}
	}
	return tickets, nil
}

var _ TicketUseCase = (*TicketService)(nil)
