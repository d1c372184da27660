package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/darasa-labs/darasa/internal/authoring"
	"github.com/darasa-labs/darasa/internal/config"
	"github.com/darasa-labs/darasa/internal/curriculum"
	"github.com/darasa-labs/darasa/internal/curriculum/source"
	"github.com/darasa-labs/darasa/internal/docstore"
	"github.com/darasa-labs/darasa/internal/logging"
	"github.com/darasa-labs/darasa/internal/server"
	ws "github.com/darasa-labs/darasa/pkg/http/ws"
)

// Application aggregates shared infrastructure (document store, curriculum
// cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server
	cache *curriculum.Cache

	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, the selected document store driver, the
// curriculum cache and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("store_driver", cfg.Store.Driver).Msg("starting application bootstrap")

	a := &Application{cfg: cfg, logger: logger}

	var store docstore.Store
	switch cfg.Store.Driver {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = docstore.NewRedisStore(a.redis, logger)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Postgres.ConnString()+" pool_max_conns=10")
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		store = docstore.NewPostgresStore(pool, logger)
	case "memory":
		store = docstore.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	hub := ws.NewHub(logger)
	metrics := curriculum.NewMetrics(prometheus.DefaultRegisterer)
	src := source.New(store, logger, source.Options{
		WatchDebounce: cfg.Cache.WatchDebounce,
		FetchTimeout:  cfg.Cache.FetchTimeout,
	})
	cache := curriculum.NewCache(src, src, logger, curriculum.Options{
		Metrics: metrics,
		OnUpdate: func(lvl curriculum.Level) {
			payload, _ := json.Marshal(ws.CurriculumUpdatePayload{Level: string(lvl)})
			hub.BroadcastAll(ws.Message{Type: ws.TypeCurriculumUpdate, Payload: payload})
		},
	})
	a.cache = cache

	svc := authoring.NewService(store, cache, logger)
	handlers := server.NewHandlers(svc, cache, logger)
	a.http = server.NewHTTPServer(cfg, logger, handlers, hub)

	return a, nil
}

// Run starts the cache subscription loop and the HTTP server, then waits for
// termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	cacheCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.cache.Run(cacheCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("curriculum cache stopped")
		}
	}()

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancelShutdown()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
