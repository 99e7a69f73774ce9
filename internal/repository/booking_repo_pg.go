package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// BookingRepository stores booking lines. Lines are grouped by payment token;
// there is no separate group row.
type BookingRepository interface {
	CreatePending(ctx context.Context, tx pgx.Tx, token string, ticketIDs []string) ([]domain.BookingLine, error)
	LockByToken(ctx context.Context, tx pgx.Tx, token string) ([]domain.BookingLine, error)
	SetStatus(ctx context.Context, tx pgx.Tx, lineIDs []string, status domain.BookingStatus) error
	ListByToken(ctx context.Context, token string) ([]domain.BookingLine, error)
	StaleTokens(ctx context.Context, createdBefore time.Time, limit int) ([]string, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) CreatePending(ctx context.Context, tx pgx.Tx, token string, ticketIDs []string) ([]domain.BookingLine, error) {
	rows, err := tx.Query(ctx, `INSERT INTO ticket_bookings (ticket_id, status, payment_token)
		SELECT id, $2, $3 FROM unnest($1::uuid[]) AS id
		RETURNING id::text, ticket_id::text, status, payment_token, created_at, updated_at`,
		ticketIDs, string(domain.BookingStatusPending), token)
	if err != nil {
		return nil, errors.Wrap(err, "insert booking lines")
	}
	defer rows.Close()

	lines := make([]domain.BookingLine, 0, len(ticketIDs))
	for rows.Next() {
		var l domain.BookingLine
		if err := rows.Scan(&l.ID, &l.TicketID, &l.Status, &l.PaymentToken, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan booking line")
		}
		lines = append(lines, l)
	}
	return lines, errors.Wrap(rows.Err(), "insert booking lines")
}

const lineWithTicketQuery = `SELECT b.id::text, b.ticket_id::text, b.status, b.payment_token, b.created_at, b.updated_at,
		t.id::text, t.name, t.type, t.status, t.price::text, t.currency, t.created_at, t.updated_at
	FROM ticket_bookings b
	JOIN tickets t ON t.id = b.ticket_id
	WHERE b.payment_token = $1
	ORDER BY t.id`

// LockByToken locks every line of a payment token together with its ticket.
// Rows are locked in ticket id order, the same order reservations use.
func (r *PGBookingRepository) LockByToken(ctx context.Context, tx pgx.Tx, token string) ([]domain.BookingLine, error) {
	rows, err := tx.Query(ctx, lineWithTicketQuery+` FOR UPDATE OF b, t`, token)
	if err != nil {
		return nil, errors.Wrap(err, "lock booking lines")
	}
	return scanLinesWithTickets(rows)
}

func (r *PGBookingRepository) ListByToken(ctx context.Context, token string) ([]domain.BookingLine, error) {
	rows, err := r.db.Query(ctx, lineWithTicketQuery, token)
	if err != nil {
		return nil, errors.Wrap(err, "list booking lines")
	}
	return scanLinesWithTickets(rows)
}

func (r *PGBookingRepository) SetStatus(ctx context.Context, tx pgx.Tx, lineIDs []string, status domain.BookingStatus) error {
	_, err := tx.Exec(ctx, `UPDATE ticket_bookings SET status = $1, updated_at = now() WHERE id = ANY($2::uuid[])`, string(status), lineIDs)
	return errors.Wrap(err, "set booking status")
}

// StaleTokens returns payment tokens that still have pending lines created before the deadline, oldest first.
func (r *PGBookingRepository) StaleTokens(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT payment_token FROM ticket_bookings
		WHERE status = $1 AND created_at <= $2
		GROUP BY payment_token
		ORDER BY min(created_at)
		LIMIT $3`, string(domain.BookingStatusPending), createdBefore, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query stale tokens")
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, errors.Wrap(err, "scan stale token")
		}
		tokens = append(tokens, token)
	}
	return tokens, errors.Wrap(rows.Err(), "iterate stale tokens")
}

func scanLinesWithTickets(rows pgx.Rows) ([]domain.BookingLine, error) {
	defer rows.Close()

	lines := make([]domain.BookingLine, 0)
	for rows.Next() {
		var l domain.BookingLine
		var t domain.Ticket
		var price string
		if err := rows.Scan(&l.ID, &l.TicketID, &l.Status, &l.PaymentToken, &l.CreatedAt, &l.UpdatedAt,
			&t.ID, &t.Name, &t.Type, &t.Status, &price, &t.Currency, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan booking line")
		}
		t.Price = domain.Price(price)
		l.Ticket = &t
		lines = append(lines, l)
	}
	return lines, errors.Wrap(rows.Err(), "iterate booking lines")
}

var _ BookingRepository = (*PGBookingRepository)(nil)
