// Package pgtest connects integration tests to a real Postgres. Tests are
// skipped unless TEST_DATABASE_URL is set. Rows are never truncated: every
// helper creates uniquely named tickets so packages can run concurrently.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const EnvDatabaseURL = "TEST_DATABASE_URL"

func NewPool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDatabaseURL)
	if dsn == "" {
		t.Skipf("%s is not set", EnvDatabaseURL)
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, config.DatabaseConfig{URL: dsn, MaxConns: 32})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, repository.Migrate(ctx, pool))
	return pool
}

// CreateTickets inserts one ticket per status and returns their ids in the same order.
func CreateTickets(t testing.TB, pool *pgxpool.Pool, ticketType domain.TicketType, statuses ...domain.TicketStatus) []string {
	t.Helper()

	prefix := uuid.NewString()[:8]
	ids := make([]string, 0, len(statuses))
	for i, st := range statuses {
		var id string
		err := pool.QueryRow(context.Background(),
			`INSERT INTO tickets (name, type, status, price, currency) VALUES ($1, $2, $3, 10, 'USD') RETURNING id::text`,
			fmt.Sprintf("test %s #%d", prefix, i+1), string(ticketType), string(st)).Scan(&id)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

// TicketStatus reads the committed status of a ticket.
func TicketStatus(t testing.TB, pool *pgxpool.Pool, id string) domain.TicketStatus {
	t.Helper()

	var st string
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT status FROM tickets WHERE id = $1::uuid`, id).Scan(&st))
	return domain.TicketStatus(st)
}

// CountLines counts booking lines for the given tickets, optionally restricted to a status.
func CountLines(t testing.TB, pool *pgxpool.Pool, ticketIDs []string, status domain.BookingStatus) int {
	t.Helper()

	query := `SELECT count(*) FROM ticket_bookings WHERE ticket_id = ANY($1::uuid[])`
	args := []any{ticketIDs}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}
