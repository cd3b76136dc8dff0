// Package pg provides PostgreSQL connection management and a durable
// implementation of the core/session storage contract.
//
// This package wraps the pgx driver with application-level retry logic,
// connection pool defaults tuned for web workloads, and a session store
// that keeps login handshakes across process restarts.
//
// # Configuration
//
// All configuration is handled through the Config struct with environment
// variable mapping:
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL,required"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//	}
//
// # Session Store
//
// Store keeps each session as one row in the hoyoauth_sessions table: the
// JSON payload plus indexed created_at, updated_at, and expires_at columns.
// Initialize creates the table idempotently, so no external migration step
// is required. TTL is sliding: every update pushes expires_at out by the
// full TTL.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	store, err := pg.NewStore(pool,
//		pg.WithTTL(10*time.Minute),
//		pg.WithCleanupInterval(time.Minute),
//		pg.WithOnExpire(notifyExpired),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := store.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer store.Shutdown(context.Background())
//
// Expired rows are reclaimed lazily on read and by a background sweep
// (DELETE ... RETURNING), using conditional deletes so racing claimants
// (including other replicas sharing the database) fire the expire callback
// exactly once per session. Explicit DeleteSession never triggers it.
//
// # Transaction Management
//
// WithTx attaches a pgx.Tx to a context and TxFromContext retrieves it;
// store reads and writes transparently join a transaction carried this way,
// so callers can combine a session update with their own domain writes
// atomically:
//
//	tx, err := pool.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback(ctx) // Safe even after commit
//
//	ctx = pg.WithTx(ctx, tx)
//	if err := store.UpdateSession(ctx, id, sess); err != nil {
//		return err
//	}
//	if _, err := tx.Exec(ctx, "INSERT INTO audit_log ..."); err != nil {
//		return err
//	}
//	return tx.Commit(ctx)
//
// # Error Handling
//
// Connection errors use package sentinels (ErrFailedToOpenDBConnection,
// ErrEmptyConnectionString, ErrFailedToParseDBConfig, ErrHealthcheckFailed).
// Classification helpers (IsNotFoundError, IsDuplicateKeyError,
// IsForeignKeyViolationError, IsTxClosedError) detect common PostgreSQL
// error patterns. Store operations translate driver failures into the
// core/session taxonomy: session.ErrNotFound, session.ErrClosed, and
// session.ErrStorageFault wrapping the underlying error.
package pg
