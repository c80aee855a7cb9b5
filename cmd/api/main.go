package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "talent_testimonials/internal/adapters/http_server"
	"talent_testimonials/internal/adapters/localcache"
	"talent_testimonials/internal/adapters/observability"
	redisad "talent_testimonials/internal/adapters/redis"
	"talent_testimonials/internal/app"
	"talent_testimonials/internal/domain"
	"talent_testimonials/internal/shared"
	"talent_testimonials/internal/storage/memory"
	mysqlrepo "talent_testimonials/internal/storage/mysql"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// deps
	store := openStore(cfg)
	cached := app.NewCachedStore(store, openCache(ctx, cfg), cfg.CacheTTLDuration())
	q := app.NewQueryService(cached, cfg.FeaturedLimit, cfg.StoreTimeout)

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:        q,
		Defaults: app.PageDefaults{PageSize: cfg.PageSize, MaxPageSize: cfg.MaxPageSize},
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreBackend).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

func openStore(cfg shared.Config) domain.ReviewStore {
	if cfg.StoreBackend == "memory" {
		if cfg.ReviewsFixture == "" {
			return memory.New()
		}
		s, err := memory.LoadFile(cfg.ReviewsFixture)
		if err != nil {
			log.Fatal().Err(err).Msg("load reviews fixture failed")
		}
		return s
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	// a failed ping is not fatal: requests degrade to "reviews unavailable" until the DB is back
	if err := db.Ping(); err != nil {
		log.Error().Err(err).Msg("db.Ping failed")
	} else {
		log.Info().Msg("database connection ok")
	}
	return mysqlrepo.New(db)
}

func openCache(ctx context.Context, cfg shared.Config) domain.Cache {
	if cfg.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR empty; using in-process snapshot cache")
		return localcache.New(cfg.CacheTTLDuration())
	}
	c := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := c.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; snapshot cache will miss")
	}
	return c
}
