// Package redis provides Redis client initialization and a Redis-backed
// implementation of the core/session storage contract.
//
// The package wraps the go-redis client with connection validation, retry
// logic, and environment-driven configuration, and layers a durable session
// store on top of it for deployments where login handshakes must survive
// process restarts or be shared across replicas.
//
// # Connecting
//
// Connect creates a verified client from a Config loaded via environment
// variables:
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Both redis:// and rediss:// (TLS) URL schemes are accepted. Connection
// establishment retries transient failures with backoff and verifies the
// link with a ping before returning. Healthcheck returns a probe function
// suitable for readiness endpoints.
//
// # Session Store
//
// Store persists each session as a JSON blob under hoyoauth:session:<id>
// and indexes expiry deadlines in the hoyoauth:expirations sorted set.
// TTL is sliding: every update pushes the deadline out by the full TTL.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := redis.NewStore(client,
//		redis.WithTTL(10*time.Minute),
//		redis.WithCleanupInterval(time.Minute),
//		redis.WithOnExpire(notifyExpired),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := store.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer store.Shutdown(context.Background())
//
// Each session key additionally carries a native expiry set to the TTL
// plus a grace window. Reclamation normally claims the session well before
// the native expiry fires, so the expire callback gets the snapshot; the
// native expiry is the backstop that frees memory when no process with a
// reclamation loop survives.
//
// Expired sessions are reclaimed lazily on read and by a background loop
// scanning the deadline index. Both paths funnel through a Lua script that
// re-checks the deadline inside Redis before deleting, so concurrent
// readers, updaters, and competing replicas cannot double-fire the expire
// callback: exactly one claimant wins and receives the snapshot.
//
// Explicit DeleteSession never triggers the expire callback; only TTL
// reclamation does.
//
// # Error Handling
//
// Connection errors use package sentinels (ErrFailedToParseRedisConnString,
// ErrRedisNotReady, ErrEmptyConnectionURL, ErrHealthcheckFailed). Store
// operations translate Redis failures into the core/session taxonomy:
// session.ErrNotFound for missing or reclaimed records, session.ErrClosed
// after Shutdown, and session.ErrStorageFault wrapping the underlying
// client error for everything else. All are stable for errors.Is checks.
package redis
