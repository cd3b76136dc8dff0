package config

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cache      sync.Map // reflect.Type -> any
	loadDotEnv sync.Once
)

// Load populates cfg from environment variables and caches the result per
// concrete type: subsequent calls for the same type return the cached
// value without re-reading the environment. A .env file in the working
// directory is loaded once before the first parse; a missing file is not
// an error.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config target cannot be nil")
	}

	// Absence of a .env file is normal; real values come from the process
	// environment in production.
	loadDotEnv.Do(func() { _ = godotenv.Load() })

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse %s from environment: %w", key, err)
	}

	cached, _ := cache.LoadOrStore(key, *cfg)
	*cfg = cached.(T)
	return nil
}

// MustLoad is Load that panics on failure. Intended for application startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// StorageConfig is the ready-made environment surface for session storage.
// Hosts embed or load it directly:
//
//	var cfg config.StorageConfig
//	config.MustLoad(&cfg)
type StorageConfig struct {
	// TTL of zero disables reclamation entirely.
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"5m"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"30s"`

	// Optional backend connection strings; empty means the in-memory
	// store is used.
	RedisURL    string `env:"SESSION_REDIS_URL"`
	PostgresURL string `env:"SESSION_POSTGRES_URL"`
}
