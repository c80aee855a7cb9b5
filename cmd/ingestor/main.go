package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"talent_testimonials/internal/adapters/observability"
	redisad "talent_testimonials/internal/adapters/redis"
	"talent_testimonials/internal/adapters/wordpress"
	"talent_testimonials/internal/app"
	"talent_testimonials/internal/domain"
	"talent_testimonials/internal/shared"
	mysqlrepo "talent_testimonials/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("base", cfg.WPBaseURL).
		Str("post_type", cfg.WPPostType).
		Int("workers", cfg.Workers).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	client, err := wordpress.New(wordpress.Options{
		BaseURL:     cfg.WPBaseURL,
		PostType:    cfg.WPPostType,
		User:        cfg.WPUser,
		AppPassword: cfg.WPAppPassword,
		RPS:         cfg.WPRPS,
		Workers:     cfg.Workers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize WordPress client")
	}

	// only Redis is shared with the API; the in-process cache lives in the API itself
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	}

	ing := app.NewIngestionService(client, mysqlrepo.New(db), cache, cfg.Workers)

	start := time.Now()
	rep, err := ing.Sync(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("ingest failed")
	}
	log.Info().
		Int("fetched", rep.Fetched).
		Int("stored", rep.Stored).
		Int("skipped", rep.Skipped).
		Int("invalid_ratings", rep.InvalidRatings).
		Dur("took", time.Since(start)).
		Msg("ingestion completed")
}
