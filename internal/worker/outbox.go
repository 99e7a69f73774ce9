package worker

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/events"
	"github.com/Domenick1991/ticketbooking/internal/metrics"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/rs/zerolog"
)

// OutboxRelay publishes committed outbox events to the broker in insertion
// order. Delivery is at least once: an event published but not yet marked
// sent is published again on the next tick.
type OutboxRelay struct {
	outbox    repository.OutboxRepository
	publisher events.Publisher
	logger    zerolog.Logger
	interval  time.Duration
	batchSize int
}

func NewOutboxRelay(
	outbox repository.OutboxRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
	interval time.Duration,
	batchSize int,
) *OutboxRelay {
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger.With().Str("component", "outbox-relay").Logger(),
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *OutboxRelay) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.interval).Msg("outbox relay started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := w.RelayOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("failed to relay outbox events")
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many events were marked sent.
// It stops at the first publish failure so later events of the same token are
// not delivered ahead of it.
func (w *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := w.outbox.Pending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range pending {
		err := w.publisher.Publish(ctx, event.AggregateID, event.Payload)
		metrics.IncOutbox(err)
		if err != nil {
			w.logger.Error().Err(err).Int64("event_id", event.ID).Str("event_type", event.EventType).Msg("failed to publish event")
			return sent, nil
		}

		if err := w.outbox.MarkSent(ctx, event.ID); err != nil {
			return sent, err
		}
		sent++
		w.logger.Debug().Int64("event_id", event.ID).Str("event_type", event.EventType).Msg("event published")
	}
	return sent, nil
}
