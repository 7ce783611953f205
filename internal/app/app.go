package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/db/migrations"
	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	"github.com/gokatarajesh/trivia-api/internal/metrics"
	"github.com/gokatarajesh/trivia-api/internal/ratelimit"
	"github.com/gokatarajesh/trivia-api/internal/server"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

// Application aggregates shared infrastructure (store, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	http    *http.Server
	closers []closer
}

type closer struct {
	name  string
	close func() error
}

// New bootstraps logger, storage, Redis and the HTTP server from cfg.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("storage", cfg.Storage.Driver).Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	m := metrics.New()
	svc := trivia.NewService(store, trivia.ServiceOptions{Recorder: m})
	ready := []server.ReadyCheck{{Name: "store", Ping: svc.Ping}}

	var limiter *ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		a.closers = append(a.closers, closer{"redis", redisClient.Close})
		ready = append(ready, server.ReadyCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
		limiter = ratelimit.NewLimiter(ratelimit.NewRedisCounter(redisClient), cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	} else {
		logger.Warn().Msg("REDIS_ADDR not configured; rate limiting disabled")
	}

	pages := trivia.PageParser{
		DefaultSize: cfg.Pagination.DefaultPageSize,
		MaxSize:     cfg.Pagination.MaxPageSize,
	}

	a.http = server.NewHTTPServer(cfg, logger, server.Dependencies{
		Trivia:  trivia.NewHTTPHandlers(svc, pages, logger),
		Metrics: m,
		Limiter: limiter,
		Ready:   ready,
	})
	return a, nil
}

func (a *Application) openStore(ctx context.Context) (trivia.Store, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverMemory:
		a.logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return repository.NewMemoryStore(repository.DefaultCategories()...), nil

	case config.DriverSQLite:
		store, err := repository.OpenSQLite(ctx, a.cfg.SQLite.Path, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, closer{"sqlite", store.Close})
		return store, nil

	default:
		poolCfg, err := pgxpool.ParseConfig(a.cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("parse postgres config: %w", err)
		}
		if a.cfg.Postgres.MaxConns > 0 {
			poolCfg.MaxConns = int32(a.cfg.Postgres.MaxConns)
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, closer{"postgres", func() error { pool.Close(); return nil }})

		if a.cfg.Postgres.AutoMigrate {
			if err := migratePool(ctx, pool, a.logger); err != nil {
				return nil, err
			}
		}
		return repository.NewPostgresStore(pool), nil
	}
}

func migratePool(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	runner, err := migrations.NewRunner(db, migrations.DialectPostgres, logger)
	if err != nil {
		return err
	}
	if err := runner.Up(ctx); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// Handler exposes the routed handler, mainly for in-process tests.
func (a *Application) Handler() http.Handler {
	return a.http.Handler
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	a.close()

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

// close releases resources in reverse acquisition order.
func (a *Application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error().Err(err).Str("resource", c.name).Msg("close error")
		}
	}
	a.closers = nil
}
