package pg

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/hoyoauth/core/logger"
	"github.com/dmitrymomot/hoyoauth/core/session"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS hoyoauth_sessions (
	id         TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS hoyoauth_sessions_expires_at_idx
	ON hoyoauth_sessions (expires_at) WHERE expires_at IS NOT NULL;
`

// querier is the subset of pgx operations the store needs. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so queries transparently join a
// transaction carried in the context via WithTx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed session.Store. Each session is one row
// holding the JSON payload plus indexed timestamps; the expires_at column
// drives TTL reclamation. TTL is sliding: every update pushes expires_at
// out by the full TTL.
type Store struct {
	pool *pgxpool.Pool

	ttl             time.Duration
	cleanupInterval time.Duration
	onExpire        session.ExpireFunc
	log             *slog.Logger
	now             func() time.Time

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	closed    bool
	callbacks sync.WaitGroup
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL sets how long a session may stay idle before reclamation.
// Zero means sessions are never reclaimed.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// WithCleanupInterval sets how often the reclamation loop wakes up.
func WithCleanupInterval(interval time.Duration) StoreOption {
	return func(s *Store) { s.cleanupInterval = interval }
}

// WithOnExpire registers the callback invoked with the snapshot of every
// session reclaimed by TTL.
func WithOnExpire(fn session.ExpireFunc) StoreOption {
	return func(s *Store) { s.onExpire = fn }
}

// WithLogger sets the logger for reclamation activity.
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock injects the time source used for expiry decisions.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a PostgreSQL-backed session store over an established
// pool. Contradictory TTL configuration is rejected eagerly.
func NewStore(pool *pgxpool.Pool, opts ...StoreOption) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pgx pool is required")
	}
	s := &Store{
		pool: pool,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := session.ValidateTTLConfig(s.ttl, s.cleanupInterval); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize creates the sessions table if missing and starts the
// reclamation loop when a TTL is configured. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return errors.Join(session.ErrStorageFault, err)
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.closed = false
	if s.cancel != nil || s.ttl == 0 {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.reclaimLoop(loopCtx, s.done)

	s.log.InfoContext(ctx, "postgres session reclamation started",
		slog.Duration("ttl", s.ttl),
		slog.Duration("cleanup_interval", s.cleanupInterval))
	return nil
}

// Shutdown stops the reclamation loop and marks the store closed.
// The pool itself stays open; the host owns it. Idempotent.
func (s *Store) Shutdown(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	finished := make(chan struct{})
	go func() {
		s.callbacks.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// CreateSession allocates an unpredictable ID and inserts a pending session.
func (s *Store) CreateSession(ctx context.Context, params session.CreateParams) (session.Session, error) {
	if s.isClosed() {
		return session.Session{}, session.ErrClosed
	}

	now := s.now().UTC()
	sess := session.Session{
		Status:    session.StatusPending,
		Stage:     session.StageCredentials,
		Data:      params.Data,
		Language:  params.Language,
		Account:   params.Account,
		Password:  params.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sess.Data == nil {
		sess.Data = map[string]any{}
	}

	var expiresAt *time.Time
	if s.ttl > 0 {
		deadline := now.Add(s.ttl)
		expiresAt = &deadline
	}

	for range 5 {
		id, err := session.NewID()
		if err != nil {
			return session.Session{}, session.ErrIDGeneration
		}
		sess.ID = id

		payload, err := json.Marshal(sess)
		if err != nil {
			return session.Session{}, errors.Join(session.ErrStorageFault, err)
		}

		tag, err := s.db(ctx).Exec(ctx, `
			INSERT INTO hoyoauth_sessions (id, payload, created_at, updated_at, expires_at)
			VALUES ($1, $2, $3, $3, $4)
			ON CONFLICT (id) DO NOTHING`,
			id, payload, now, expiresAt)
		if err != nil {
			return session.Session{}, errors.Join(session.ErrStorageFault, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		return sess, nil
	}
	return session.Session{}, session.ErrIDGeneration
}

// GetSession returns the session or session.ErrNotFound. A session whose
// deadline has passed is reclaimed on the spot.
func (s *Store) GetSession(ctx context.Context, id string) (session.Session, error) {
	if s.isClosed() {
		return session.Session{}, session.ErrClosed
	}

	var payload []byte
	var expiresAt *time.Time
	err := s.db(ctx).QueryRow(ctx,
		`SELECT payload, expires_at FROM hoyoauth_sessions WHERE id = $1`,
		id).Scan(&payload, &expiresAt)
	if IsNotFoundError(err) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, errors.Join(session.ErrStorageFault, err)
	}

	if expiresAt != nil && !s.now().Before(*expiresAt) {
		s.claimExpired(ctx, id)
		return session.Session{}, session.ErrNotFound
	}

	var sess session.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return session.Session{}, errors.Join(session.ErrStorageFault, err)
	}
	return sess, nil
}

// UpdateSession replaces the stored record, refreshes UpdatedAt and pushes
// the expiry deadline out by the full TTL.
func (s *Store) UpdateSession(ctx context.Context, id string, sess session.Session) error {
	if s.isClosed() {
		return session.ErrClosed
	}
	if sess.ID != "" && sess.ID != id {
		return session.ErrIDMismatch
	}

	now := s.now().UTC()
	sess.ID = id
	sess.UpdatedAt = now
	if sess.Data == nil {
		sess.Data = map[string]any{}
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(session.ErrStorageFault, err)
	}

	var expiresAt *time.Time
	if s.ttl > 0 {
		deadline := now.Add(s.ttl)
		expiresAt = &deadline
	}

	tag, err := s.db(ctx).Exec(ctx, `
		UPDATE hoyoauth_sessions
		SET payload = $2, updated_at = $3, expires_at = $4
		WHERE id = $1`,
		id, payload, now, expiresAt)
	if err != nil {
		return errors.Join(session.ErrStorageFault, err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteSession removes the session. Idempotent; never fires the expire
// callback.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if s.isClosed() {
		return session.ErrClosed
	}
	if _, err := s.db(ctx).Exec(ctx,
		`DELETE FROM hoyoauth_sessions WHERE id = $1`, id); err != nil {
		return errors.Join(session.ErrStorageFault, err)
	}
	return nil
}

func (s *Store) db(ctx context.Context) querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.pool
}

func (s *Store) isClosed() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.closed
}

// claimExpired deletes a single session only if its deadline, re-checked
// inside the database, has passed. The conditional delete is the
// compare-and-delete guard: a concurrent update that pushed expires_at
// forward rescues the row, and of several racing claimants exactly one
// sees RETURNING output and fires the callback.
func (s *Store) claimExpired(ctx context.Context, id string) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		DELETE FROM hoyoauth_sessions
		WHERE id = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		RETURNING payload`,
		id, s.now()).Scan(&payload)
	if IsNotFoundError(err) {
		return // claimed by someone else or rescued by an update
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to reclaim expired session",
			logger.SessionID(id), logger.Error(err))
		return
	}
	s.fireExpired(ctx, id, payload)
}

func (s *Store) reclaimLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reclaimExpired(ctx)
		}
	}
}

// reclaimExpired sweeps every overdue row in one statement. RETURNING
// hands back the snapshots so the expire callback sees the final state.
func (s *Store) reclaimExpired(ctx context.Context) {
	rows, err := s.pool.Query(ctx, `
		DELETE FROM hoyoauth_sessions
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		RETURNING id, payload`,
		s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "failed to sweep expired sessions", logger.Error(err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			s.log.ErrorContext(ctx, "failed to scan reclaimed session", logger.Error(err))
			return
		}
		s.fireExpired(ctx, id, payload)
	}
	if err := rows.Err(); err != nil {
		s.log.ErrorContext(ctx, "expired session sweep aborted", logger.Error(err))
	}
}

func (s *Store) fireExpired(ctx context.Context, id string, payload []byte) {
	var sess session.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		s.log.ErrorContext(ctx, "reclaimed session payload is corrupt",
			logger.SessionID(id), logger.Error(err))
		return
	}
	sess.Status = session.StatusExpired

	s.log.DebugContext(ctx, "session reclaimed", logger.SessionID(id))

	if s.onExpire == nil {
		return
	}
	s.callbacks.Add(1)
	go func() {
		defer s.callbacks.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("expire callback panicked",
					logger.SessionID(id), slog.Any("panic", r))
			}
		}()
		s.onExpire(context.WithoutCancel(ctx), sess)
	}()
}
