package repository

import (
	"context"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// TicketRepository is the inventory ledger. LockForUpdate and SetStatus must
// be called inside a transaction owned by the caller.
type TicketRepository interface {
	List(ctx context.Context, ticketType *domain.TicketType) ([]domain.Ticket, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error)
	LockForUpdate(ctx context.Context, tx pgx.Tx, ids []string) ([]domain.Ticket, error)
	SetStatus(ctx context.Context, tx pgx.Tx, ids []string, status domain.TicketStatus) error
	CreateIfAbsent(ctx context.Context, tickets []domain.Ticket) (int, error)
}

type PGTicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) TicketRepository {
	return &PGTicketRepository{db: db}
}

const ticketColumns = `id::text, name, type, status, price::text, currency, created_at, updated_at`

func (r *PGTicketRepository) List(ctx context.Context, ticketType *domain.TicketType) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	args := []any{}
	if ticketType != nil {
		query += ` WHERE type = $1`
		args = append(args, string(*ticketType))
	}
	query += ` ORDER BY type, name, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list tickets")
	}
	return scanTickets(rows)
}

func (r *PGTicketRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ANY($1::uuid[]) ORDER BY id`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get tickets")
	}
	return scanTickets(rows)
}

// LockForUpdate takes exclusive row locks on the given tickets in id order and
// blocks while another transaction holds any of them. Unknown ids are absent
// from the result.
func (r *PGTicketRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, ids []string) ([]domain.Ticket, error) {
	rows, err := tx.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "lock tickets")
	}
	return scanTickets(rows)
}

func (r *PGTicketRepository) SetStatus(ctx context.Context, tx pgx.Tx, ids []string, status domain.TicketStatus) error {
	_, err := tx.Exec(ctx, `UPDATE tickets SET status = $1, updated_at = now() WHERE id = ANY($2::uuid[])`, string(status), ids)
	return errors.Wrap(err, "set ticket status")
}

// CreateIfAbsent inserts tickets whose name is not taken yet and returns how many were added.
func (r *PGTicketRepository) CreateIfAbsent(ctx context.Context, tickets []domain.Ticket) (int, error) {
	batch := &pgx.Batch{}
	for _, t := range tickets {
		currency := t.Currency
		if currency == "" {
			currency = domain.DefaultCurrency
		}
		batch.Queue(`INSERT INTO tickets (name, type, status, price, currency)
			VALUES ($1, $2, $3, $4::numeric, $5)
			ON CONFLICT (name) DO NOTHING`,
			t.Name, string(t.Type), string(domain.TicketStatusAvailable), t.Price.String(), currency)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range tickets {
		tag, err := results.Exec()
		if err != nil {
			return created, errors.Wrap(err, "insert ticket")
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		var price string
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.Status, &price, &t.Currency, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan ticket")
		}
		t.Price = domain.Price(price)
		tickets = append(tickets, t)
	}
	return tickets, errors.Wrap(rows.Err(), "iterate tickets")
}

var _ TicketRepository = (*PGTicketRepository)(nil)
