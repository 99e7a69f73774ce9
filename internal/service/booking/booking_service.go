package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/events"
	"github.com/Domenick1991/ticketbooking/internal/metrics"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const staleBatchSize = 100

type BookingUseCase interface {
	Reserve(ctx context.Context, ticketIDs []string) (string, error)
	ResolvePayment(ctx context.Context, paymentToken string, outcome domain.BookingStatus) (domain.BookingStatus, error)
	ExpireStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}

// Cache is the part of the listing cache the coordinator needs after a commit.
type Cache interface {
	InvalidateTickets(ctx context.Context) error
}

type BookingService struct {
	tx       repository.Transactor
	tickets  repository.TicketRepository
	bookings repository.BookingRepository
	outbox   repository.OutboxRepository
	cache    Cache
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithOutbox(outbox repository.OutboxRepository) BookingServiceOption {
	return func(s *BookingService) {
		s.outbox = outbox
	}
}

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithLogger(logger zerolog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger.With().Str("component", "booking").Logger()
	}
}

func NewBookingService(
	tx repository.Transactor,
	tickets repository.TicketRepository,
	bookings repository.BookingRepository,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tx:       tx,
		tickets:  tickets,
		bookings: bookings,
		logger:   zerolog.Nop(),
		tracer:   otel.Tracer("github.com/Domenick1991/ticketbooking/internal/service/booking"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Reserve locks the requested tickets, and if every one of them is available
// marks them reserved under a fresh payment token. Nothing is written when any
// ticket is unavailable or unknown.
func (s *BookingService) Reserve(ctx context.Context, ticketIDs []string) (token string, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.Reserve")
	defer func() {
		endSpan(span, err)
		metrics.ObserveReservation(err)
	}()

	ids, malformed := normalizeTicketIDs(ticketIDs)
	if len(ids) == 0 && len(malformed) == 0 {
		return "", domain.InvalidRequest("no tickets provided")
	}
	span.SetAttributes(attribute.Int("tickets.count", len(ids)+len(malformed)))

	token = uuid.NewString()
	start := time.Now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var locked []domain.Ticket
		if len(ids) > 0 {
			var err error
			if locked, err = s.tickets.LockForUpdate(ctx, tx, ids); err != nil {
				return err
			}
		}

		if unavailable := unavailableTickets(ids, locked, malformed); len(unavailable) > 0 {
			return domain.Conflict("tickets not available", unavailable...)
		}

		if err := s.tickets.SetStatus(ctx, tx, ids, domain.TicketStatusReserved); err != nil {
			return err
		}
		if _, err := s.bookings.CreatePending(ctx, tx, token, ids); err != nil {
			return err
		}
		return s.recordEvent(ctx, tx, events.NewBookingEvent(events.TypeBookingReserved, token, ids, domain.BookingStatusPending))
	})
	metrics.ObserveTx("reserve", time.Since(start))
	if err != nil {
		err = classify(err, "reserve tickets")
		s.logger.Info().Err(err).Strs("ticket_ids", ticketIDs).Msg("reservation rejected")
		return "", err
	}

	span.SetAttributes(attribute.String("payment.token", token))
	s.logger.Info().Str("payment_token", token).Strs("ticket_ids", ids).Msg("tickets reserved")
	s.invalidateListings(ctx)
	return token, nil
}

// canonicalToken trims the token and lowercases it when it is a UUID, the
// form Reserve issues.
func canonicalToken(token string) string {
	token = strings.TrimSpace(token)
	if parsed, err := uuid.Parse(token); err == nil {
		return parsed.String()
	}
	return token
}

// ResolvePayment confirms or cancels every line of a payment token at once.
// Only pending lines can be resolved, so a second call with the same token
// fails with Conflict.
func (s *BookingService) ResolvePayment(ctx context.Context, paymentToken string, outcome domain.BookingStatus) (_ domain.BookingStatus, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ResolvePayment",
		trace.WithAttributes(attribute.String("payment.token", paymentToken), attribute.String("payment.outcome", string(outcome))))
	defer func() {
		endSpan(span, err)
		metrics.ObserveResolution(outcome, err)
	}()

	paymentToken = canonicalToken(paymentToken)
	if paymentToken == "" {
		return "", domain.InvalidRequest("payment token is required")
	}
	ticketStatus, ok := outcome.TicketStatusFor()
	if !ok {
		return "", domain.InvalidRequest("cannot resolve payment as %q", outcome)
	}

	start := time.Now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		lines, err := s.bookings.LockByToken(ctx, tx, paymentToken)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.NotFound("no booking found for payment token")
		}

		lineIDs := make([]string, 0, len(lines))
		ticketIDs := make([]string, 0, len(lines))
		var stale []string
		for _, line := range lines {
			lineIDs = append(lineIDs, line.ID)
			ticketIDs = append(ticketIDs, line.TicketID)
			if line.Status != domain.BookingStatusPending ||
				(line.Ticket != nil && line.Ticket.Status != domain.TicketStatusReserved) {
				stale = append(stale, line.TicketID)
			}
		}
		if len(stale) > 0 {
			return domain.Conflict("booking is no longer pending", stale...)
		}

		if err := s.bookings.SetStatus(ctx, tx, lineIDs, outcome); err != nil {
			return err
		}
		if err := s.tickets.SetStatus(ctx, tx, ticketIDs, ticketStatus); err != nil {
			return err
		}
		return s.recordEvent(ctx, tx, events.NewBookingEvent(events.TypeForOutcome(outcome), paymentToken, ticketIDs, outcome))
	})
	metrics.ObserveTx("resolve_payment", time.Since(start))
	if err != nil {
		err = classify(err, "resolve payment")
		s.logger.Info().Err(err).Str("payment_token", paymentToken).Str("outcome", string(outcome)).Msg("payment resolution rejected")
		return "", err
	}

	s.logger.Info().Str("payment_token", paymentToken).Str("outcome", string(outcome)).Msg("payment resolved")
	s.invalidateListings(ctx)
	return outcome, nil
}

// ExpireStale cancels payment tokens whose pending lines are older than
// olderThan, using the same path as an explicit cancellation. Tokens resolved
// concurrently by their owner are skipped.
func (s *BookingService) ExpireStale(ctx context.Context, olderThan time.Duration) ([]string, error) {
	if olderThan <= 0 {
		return nil, nil
	}

	tokens, err := s.bookings.StaleTokens(ctx, s.now().Add(-olderThan), staleBatchSize)
	if err != nil {
		return nil, classify(err, "find stale bookings")
	}

	expired := make([]string, 0, len(tokens))
	for _, token := range tokens {
		_, err := s.ResolvePayment(ctx, token, domain.BookingStatusCancelled)
		switch {
		case err == nil:
			expired = append(expired, token)
		case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotFound):
			s.logger.Debug().Str("payment_token", token).Err(err).Msg("stale booking already resolved")
		default:
			return expired, err
		}
	}
	return expired, nil
}

func (s *BookingService) recordEvent(ctx context.Context, tx pgx.Tx, event events.BookingEvent) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Insert(ctx, tx, event.PaymentToken, event.Type, event)
}

func (s *BookingService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTickets(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate tickets cache")
	}
}

// normalizeTicketIDs trims and de-duplicates ids, canonicalising UUIDs. Values
// that are not UUIDs can never match a ticket and are returned separately.
func normalizeTicketIDs(raw []string) (ids, malformed []string) {
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id := r
		parsed, err := uuid.Parse(r)
		if err == nil {
			id = parsed.String()
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if err != nil {
			malformed = append(malformed, id)
		} else {
			ids = append(ids, id)
		}
	}
	return ids, malformed
}

// unavailableTickets lists requested ids, in request order, that were not
// locked as available. Ids missing from locked do not exist.
func unavailableTickets(requested []string, locked []domain.Ticket, malformed []string) []string {
	available := make(map[string]bool, len(locked))
	for _, t := range locked {
		available[t.ID] = t.Available()
	}

	unavailable := append([]string(nil), malformed...)
	for _, id := range requested {
		if !available[id] {
			unavailable = append(unavailable, id)
		}
	}
	return unavailable
}

// classify turns infrastructure errors into the booking error taxonomy.
func classify(err error, op string) error {
	if domain.KindOf(err) != 0 {
		return err
	}
	if repository.IsUniqueViolation(err) {
		return domain.Conflict("ticket already has a live booking")
	}
	return domain.StorageFailure(op, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ BookingUseCase = (*BookingService)(nil)
