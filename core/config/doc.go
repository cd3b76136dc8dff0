// Package config provides type-safe environment variable loading with
// caching using Go generics. Each configuration type is loaded once and
// cached for subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	type StoreConfig struct {
//		TTL             time.Duration `env:"SESSION_TTL" envDefault:"5m"`
//		CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"30s"`
//	}
//
//	func main() {
//		var cfg StoreConfig
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// Each configuration type is loaded only once per application lifetime;
// different types are cached independently.
package config
