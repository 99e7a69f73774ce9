package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type Expirer interface {
	ExpireStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}

// ExpirySweeper periodically cancels reservations whose payment never
// arrived, returning their tickets to sale.
type ExpirySweeper struct {
	expirer  Expirer
	holdTTL  time.Duration
	interval time.Duration
	logger   zerolog.Logger
}

func NewExpirySweeper(expirer Expirer, holdTTL, interval time.Duration, logger zerolog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		expirer:  expirer,
		holdTTL:  holdTTL,
		interval: interval,
		logger:   logger.With().Str("component", "expiry-sweeper").Logger(),
	}
}

func (s *ExpirySweeper) Start(ctx context.Context) {
	if s.holdTTL <= 0 {
		s.logger.Info().Msg("hold ttl not set, reservations never expire")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

func (s *ExpirySweeper) SweepOnce(ctx context.Context) int {
	expired, err := s.expirer.ExpireStale(ctx, s.holdTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("expire reservations failed")
	}
	if len(expired) > 0 {
		s.logger.Info().Int("count", len(expired)).Msg("expired reservations")
	}
	return len(expired)
}
