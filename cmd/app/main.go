package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/ticketbooking/api"
	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/bootstrap"
	"github.com/Domenick1991/ticketbooking/internal/cache"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/Domenick1991/ticketbooking/internal/metrics"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/tickets"
	"github.com/Domenick1991/ticketbooking/internal/tracing"
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

	tp, err := tracing.InitTracerProvider(cfg.Tracing, cfg.App.Name)
	if err != nil {
		logger.Fatal().Err(err).Msg("init tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	if cfg.Metrics.Enabled {
		metrics.Register()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("migrate schema")
		}
	}

	ticketRepo := repository.NewTicketRepository(pool)
	bookingOpts := []booking.BookingServiceOption{
		booking.WithLogger(logger),
		booking.WithOutbox(repository.NewOutboxRepository(pool)),
	}
	health := map[string]api.HealthCheck{"postgres": pool.Ping}

	var ticketCache tickets.TicketCache
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.TicketsCacheTTL())
		defer redisCache.Close()
		ticketCache = redisCache
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
		health["redis"] = redisCache.Ping
	}

	ticketService := tickets.NewTicketService(ticketRepo, ticketCache, logger)
	bookingService := booking.NewBookingService(
		repository.NewTransactor(pool),
		ticketRepo,
		repository.NewBookingRepository(pool),
		bookingOpts...,
	)

	router := api.NewRouter(api.RouterOptions{
		Logger:     logger,
		Metrics:    cfg.Metrics,
		RateLimit:  cfg.RateLimit,
		SwaggerDir: cfg.HTTP.SwaggerDir,
		Health:     health,
	}, api.NewTicketHandler(ticketService, bookingService))

	servers := bootstrap.NewServers(cfg, logger, router, ticketService, bookingService)
	if err := servers.Run(ctx, cfg.GRPC.Address); err != nil {
		logger.Error().Err(err).Msg("server error")
		return
	}
	logger.Info().Msg("stopped")
}
