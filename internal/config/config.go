package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration for the authoring console backend.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"darasa"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Store    Store
	Postgres Postgres
	Redis    Redis
	Cache    Cache
}

// Store selects the document store driver.
type Store struct {
	// Driver is one of: redis, postgres, memory.
	Driver string `env:"STORE_DRIVER" envDefault:"redis"`
}

// Postgres captures connection info for the Postgres-backed document store.
// Only validated when STORE_DRIVER=postgres.
type Postgres struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis captures connection info for the Redis-backed document store.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Cache tunes the curriculum cache.
type Cache struct {
	FetchTimeout  time.Duration `env:"CACHE_FETCH_TIMEOUT" envDefault:"10s"`
	WatchDebounce time.Duration `env:"CACHE_WATCH_DEBOUNCE" envDefault:"250ms"`
}

// ConnString builds a pgx-compatible connection string.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Validate checks driver-specific requirements.
func (a *App) Validate() error {
	switch a.Store.Driver {
	case "redis", "memory":
		return nil
	case "postgres":
		if a.Postgres.User == "" || a.Postgres.Database == "" {
			return fmt.Errorf("postgres store requires PG_USER and PG_DATABASE")
		}
		return nil
	}
	return fmt.Errorf("unknown store driver %q", a.Store.Driver)
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
