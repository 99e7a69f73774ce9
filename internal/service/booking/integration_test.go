package booking_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/Domenick1991/ticketbooking/internal/repository/pgtest"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(pool *pgxpool.Pool) *booking.BookingService {
	return booking.NewBookingService(
		repository.NewTransactor(pool),
		repository.NewTicketRepository(pool),
		repository.NewBookingRepository(pool),
		booking.WithOutbox(repository.NewOutboxRepository(pool)),
	)
}

func TestConcurrentReservationsNeverDoubleBook(t *testing.T) {
	pool := pgtest.NewPool(t)
	service := newService(pool)
	ids := pgtest.CreateTickets(t, pool, domain.TicketTypeVIP, domain.TicketStatusAvailable, domain.TicketStatusAvailable)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			request := ids
			// reversed order must not deadlock with the forward order
			if i%2 == 1 {
				request = []string{ids[1], ids[0]}
			}
			token, err := service.Reserve(context.Background(), request)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, token)
			case assert.ErrorIs(t, err, domain.ErrConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, winners, 1)
	assert.Equal(t, callers-1, conflicts)
	assert.Equal(t, 2, pgtest.CountLines(t, pool, ids, domain.BookingStatusPending))
	for _, id := range ids {
		assert.Equal(t, domain.TicketStatusReserved, pgtest.TicketStatus(t, pool, id))
	}
}

func TestOverlappingReservationsShareNoTicket(t *testing.T) {
	pool := pgtest.NewPool(t)
	service := newService(pool)
	ids := pgtest.CreateTickets(t, pool, domain.TicketTypeGeneral,
		domain.TicketStatusAvailable, domain.TicketStatusAvailable, domain.TicketStatusAvailable)

	requests := [][]string{{ids[0], ids[1]}, {ids[1], ids[2]}, {ids[2], ids[0]}}
	var wg sync.WaitGroup
	results := make([]error, len(requests))
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req []string) {
			defer wg.Done()
			_, results[i] = service.Reserve(context.Background(), req)
		}(i, req)
	}
	wg.Wait()

	// any two requests overlap, so exactly one wins
	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrConflict)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, pgtest.CountLines(t, pool, ids, domain.BookingStatusPending))
}

func TestBookingScenario(t *testing.T) {
	pool := pgtest.NewPool(t)
	service := newService(pool)
	ctx := context.Background()
	ids := pgtest.CreateTickets(t, pool, domain.TicketTypeFrontRow,
		domain.TicketStatusAvailable, domain.TicketStatusAvailable, domain.TicketStatusReserved)
	a, b, c := ids[0], ids[1], ids[2]

	first, err := service.Reserve(ctx, []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReserved, pgtest.TicketStatus(t, pool, a))
	assert.Equal(t, domain.TicketStatusReserved, pgtest.TicketStatus(t, pool, b))

	_, err = service.Reserve(ctx, []string{b, c})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, []string{b, c}, domain.ConflictTickets(err))
	assert.Equal(t, 2, pgtest.CountLines(t, pool, ids, domain.BookingStatusPending))

	status, err := service.ResolvePayment(ctx, first, domain.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, status)
	assert.Equal(t, domain.TicketStatusAvailable, pgtest.TicketStatus(t, pool, a))
	assert.Equal(t, domain.TicketStatusAvailable, pgtest.TicketStatus(t, pool, b))
	assert.Equal(t, domain.TicketStatusReserved, pgtest.TicketStatus(t, pool, c))

	second, err := service.Reserve(ctx, []string{a, b})
	require.NoError(t, err)

	_, err = service.ResolvePayment(ctx, second, domain.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusSold, pgtest.TicketStatus(t, pool, a))
	assert.Equal(t, domain.TicketStatusSold, pgtest.TicketStatus(t, pool, b))

	// sold tickets never come back
	_, err = service.Reserve(ctx, []string{b})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// a resolved token cannot be resolved again
	_, err = service.ResolvePayment(ctx, second, domain.BookingStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.TicketStatusSold, pgtest.TicketStatus(t, pool, b))

	_, err = service.ResolvePayment(ctx, "00000000-0000-0000-0000-000000000000", domain.BookingStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentResolutionsApplyOnce(t *testing.T) {
	pool := pgtest.NewPool(t)
	service := newService(pool)
	ctx := context.Background()
	ids := pgtest.CreateTickets(t, pool, domain.TicketTypeVIP, domain.TicketStatusAvailable)

	token, err := service.Reserve(ctx, ids)
	require.NoError(t, err)

	outcomes := []domain.BookingStatus{domain.BookingStatusConfirmed, domain.BookingStatusCancelled}
	errs := make([]error, len(outcomes))
	var wg sync.WaitGroup
	for i, outcome := range outcomes {
		wg.Add(1)
		go func(i int, outcome domain.BookingStatus) {
			defer wg.Done()
			_, errs[i] = service.ResolvePayment(ctx, token, outcome)
		}(i, outcome)
	}
	wg.Wait()

	switch {
	case errs[0] == nil:
		assert.ErrorIs(t, errs[1], domain.ErrConflict)
		assert.Equal(t, domain.TicketStatusSold, pgtest.TicketStatus(t, pool, ids[0]))
	case errs[1] == nil:
		assert.ErrorIs(t, errs[0], domain.ErrConflict)
		assert.Equal(t, domain.TicketStatusAvailable, pgtest.TicketStatus(t, pool, ids[0]))
	default:
		t.Fatalf("both resolutions failed: %v, %v", errs[0], errs[1])
	}
}
