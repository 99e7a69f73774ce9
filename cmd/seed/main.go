package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/Domenick1991/ticketbooking/internal/seed"
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

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := repository.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate schema")
	}

	created, err := seed.Run(ctx, repository.NewTicketRepository(pool), seed.DefaultTiers)
	if err != nil {
		logger.Fatal().Err(err).Int("created", created).Msg("seed tickets")
	}
	logger.Info().Int("created", created).Msg("tickets seeded")
}
