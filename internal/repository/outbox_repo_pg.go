package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// OutboxRepository keeps events written in the same transaction as the state
// change they describe, until a relay publishes them.
type OutboxRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload any) error
	Pending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id int64) error
}

type OutboxEvent struct {
	ID          int64           `json:"id"`
	AggregateID string          `json:"aggregateId"`
	EventType   string          `json:"eventType"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type PGOutboxRepository struct {
	db *pgxpool.Pool
}

func NewOutboxRepository(db *pgxpool.Pool) OutboxRepository {
	return &PGOutboxRepository{db: db}
}

func (r *PGOutboxRepository) Insert(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal outbox payload")
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3::jsonb)`,
		aggregateID, eventType, string(data))
	return errors.Wrap(err, "insert outbox event")
}

func (r *PGOutboxRepository) Pending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.Query(ctx, `SELECT id, aggregate_id, event_type, payload::text, created_at
		FROM outbox_events
		WHERE status = 'pending'
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query pending events")
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		var payload string
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &payload, &ev.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan outbox event")
		}
		ev.Payload = json.RawMessage(payload)
		events = append(events, ev)
	}
	return events, errors.Wrap(rows.Err(), "iterate outbox events")
}

func (r *PGOutboxRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox_events SET status = 'sent', sent_at = now() WHERE id = $1`, id)
	return errors.Wrap(err, "mark outbox event sent")
}

var _ OutboxRepository = (*PGOutboxRepository)(nil)
