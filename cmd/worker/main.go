package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/bootstrap"
	"github.com/Domenick1991/ticketbooking/internal/cache"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/Domenick1991/ticketbooking/internal/metrics"
	"github.com/Domenick1991/ticketbooking/internal/notification"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logCloser.Close()
	logger = logger.With().Str("process", "worker").Logger()
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	outboxRepo := repository.NewOutboxRepository(pool)
	bookingOpts := []booking.BookingServiceOption{booking.WithLogger(logger), booking.WithOutbox(outboxRepo)}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.TicketsCacheTTL())
		defer redisCache.Close()
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
	}
	bookingService := booking.NewBookingService(
		repository.NewTransactor(pool),
		repository.NewTicketRepository(pool),
		repository.NewBookingRepository(pool),
		bookingOpts...,
	)

	publisher, consumer, err := bootstrap.NewEventTransport(cfg.Events, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init event transport")
	}

	g, ctx := errgroup.WithContext(ctx)

	sweeper := worker.NewExpirySweeper(bookingService, cfg.Booking.HoldTTL(),
		time.Duration(cfg.Worker.ExpirationSweepMinutes)*time.Minute, logger)
	g.Go(func() error {
		sweeper.Start(ctx)
		return nil
	})

	if publisher != nil {
		defer publisher.Close()
		relay := worker.NewOutboxRelay(outboxRepo, publisher, logger,
			time.Duration(cfg.Worker.OutboxIntervalSeconds)*time.Second, cfg.Worker.OutboxBatchSize)
		g.Go(func() error {
			relay.Start(ctx)
			return nil
		})
	}

	if consumer != nil {
		defer consumer.Close()
		sender := notification.NewSender(logger)
		g.Go(func() error {
			if err := consumer.Consume(ctx, sender.Send); err != nil {
				logger.Error().Err(err).Msg("notification consumer stopped")
			}
			return nil
		})
	}

	logger.Info().Str("broker", cfg.Events.Broker).Msg("worker started")
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("worker error")
	}
	logger.Info().Msg("worker stopped")
}
