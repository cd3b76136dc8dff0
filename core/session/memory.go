package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/hoyoauth/core/logger"
)

// MemoryStore keeps sessions in a process-local map. It is the reference
// Store implementation: safe for concurrent use, TTL expiry checked lazily
// on every read plus a background reclamation loop started by Initialize.
//
// TTL policy is sliding: a session's age is measured from UpdatedAt, so an
// actively advancing login never expires mid-step. A zero TTL disables
// reclamation entirely.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session

	ttl             time.Duration
	cleanupInterval time.Duration
	onExpire        ExpireFunc
	log             *slog.Logger
	now             func() time.Time

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	closed    bool
	callbacks sync.WaitGroup
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithTTL sets how long a session may stay idle before reclamation.
// Zero means sessions are never reclaimed.
func WithTTL(ttl time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.ttl = ttl
	}
}

// WithCleanupInterval sets how often the reclamation loop wakes up.
// Required when a TTL is configured.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithOnExpire registers the callback invoked with the snapshot of every
// session reclaimed by TTL.
func WithOnExpire(fn ExpireFunc) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.onExpire = fn
	}
}

// WithLogger sets the logger for reclamation activity.
func WithLogger(log *slog.Logger) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if log != nil {
			ms.log = log
		}
	}
}

// WithClock injects the time source. Tests use it to simulate elapsed time
// without sleeping.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates an in-memory session store. Contradictory TTL
// configuration is rejected here rather than silently ignored: a finite
// TTL requires a cleanup interval and a cleanup interval requires a TTL.
func NewMemoryStore(opts ...MemoryStoreOption) (*MemoryStore, error) {
	ms := &MemoryStore{
		sessions: make(map[string]Session),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(ms)
	}
	if err := ValidateTTLConfig(ms.ttl, ms.cleanupInterval); err != nil {
		return nil, err
	}
	return ms, nil
}

// Initialize starts the reclamation loop when a TTL is configured.
// Calling it on an already initialized store is a no-op.
func (ms *MemoryStore) Initialize(ctx context.Context) error {
	ms.lifecycle.Lock()
	defer ms.lifecycle.Unlock()

	ms.closed = false
	if ms.cancel != nil || ms.ttl == 0 {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	ms.cancel = cancel
	ms.done = make(chan struct{})

	go ms.reclaimLoop(loopCtx, ms.done)

	ms.log.InfoContext(ctx, "session reclamation started",
		slog.Duration("ttl", ms.ttl),
		slog.Duration("cleanup_interval", ms.cleanupInterval))
	return nil
}

// Shutdown cancels the reclamation loop's pending wait, waits for it and
// any in-flight expire callbacks to finish, and marks the store closed.
// Subsequent operations fail with ErrClosed. Idempotent.
func (ms *MemoryStore) Shutdown(ctx context.Context) error {
	ms.lifecycle.Lock()
	defer ms.lifecycle.Unlock()

	if ms.closed {
		return nil
	}
	ms.closed = true

	if ms.cancel != nil {
		ms.cancel()
		ms.cancel = nil
		select {
		case <-ms.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	finished := make(chan struct{})
	go func() {
		ms.callbacks.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	ms.log.InfoContext(ctx, "session store stopped")
	return nil
}

// CreateSession allocates an unpredictable ID and stores a pending session.
func (ms *MemoryStore) CreateSession(ctx context.Context, params CreateParams) (Session, error) {
	if ms.isClosed() {
		return Session{}, ErrClosed
	}

	now := ms.now()
	sess := Session{
		Status:    StatusPending,
		Stage:     StageCredentials,
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

	ms.mu.Lock()
	defer ms.mu.Unlock()

	// Collisions on 256-bit IDs are practically impossible; the retry loop
	// keeps the uniqueness invariant honest anyway.
	for range 5 {
		id, err := NewID()
		if err != nil {
			return Session{}, ErrIDGeneration
		}
		if _, exists := ms.sessions[id]; exists {
			continue
		}
		sess.ID = id
		ms.sessions[id] = sess.Clone()
		return sess, nil
	}
	return Session{}, ErrIDGeneration
}

// GetSession returns the session or ErrNotFound. An entry whose TTL has
// lapsed is reclaimed on the spot so readers never observe stale state,
// even if the reclamation loop is behind.
func (ms *MemoryStore) GetSession(ctx context.Context, id string) (Session, error) {
	if ms.isClosed() {
		return Session{}, ErrClosed
	}

	ms.mu.RLock()
	sess, ok := ms.sessions[id]
	ms.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}

	if ms.expired(sess) {
		ms.reclaim(ctx, id, sess.UpdatedAt)
		return Session{}, ErrNotFound
	}
	return sess.Clone(), nil
}

// UpdateSession replaces the stored record and refreshes UpdatedAt, which
// also extends the sliding TTL.
func (ms *MemoryStore) UpdateSession(ctx context.Context, id string, sess Session) error {
	if ms.isClosed() {
		return ErrClosed
	}
	if sess.ID != "" && sess.ID != id {
		return ErrIDMismatch
	}

	ms.mu.Lock()
	current, ok := ms.sessions[id]
	if ok && ms.expired(current) {
		ms.mu.Unlock()
		ms.reclaim(ctx, id, current.UpdatedAt)
		return ErrNotFound
	}
	if !ok {
		ms.mu.Unlock()
		return ErrNotFound
	}

	sess.ID = id
	sess.CreatedAt = current.CreatedAt
	sess.UpdatedAt = ms.now()
	ms.sessions[id] = sess.Clone()
	ms.mu.Unlock()
	return nil
}

// DeleteSession removes the session. Deleting a missing id is not an
// error, and an explicit delete never triggers the expire callback.
func (ms *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	if ms.isClosed() {
		return ErrClosed
	}

	ms.mu.Lock()
	delete(ms.sessions, id)
	ms.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired or not. Intended for
// tests and observability.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.sessions)
}

func (ms *MemoryStore) isClosed() bool {
	ms.lifecycle.Lock()
	defer ms.lifecycle.Unlock()
	return ms.closed
}

func (ms *MemoryStore) expired(sess Session) bool {
	return ms.ttl > 0 && ms.now().Sub(sess.UpdatedAt) >= ms.ttl
}

// reclaim deletes the session if its UpdatedAt still matches seenAt and
// fires the expire callback with the snapshot. The timestamp check is the
// compare-and-delete guard: a session updated concurrently since the expiry
// check is left alone, so foreground progress never loses to reclamation.
func (ms *MemoryStore) reclaim(ctx context.Context, id string, seenAt time.Time) {
	ms.mu.Lock()
	sess, ok := ms.sessions[id]
	if !ok || !sess.UpdatedAt.Equal(seenAt) {
		ms.mu.Unlock()
		return
	}
	delete(ms.sessions, id)
	ms.mu.Unlock()

	snapshot := sess.Clone()
	snapshot.Status = StatusExpired

	ms.log.DebugContext(ctx, "session reclaimed",
		logger.SessionID(id),
		slog.Time("updated_at", seenAt))

	if ms.onExpire == nil {
		return
	}
	ms.callbacks.Add(1)
	go func() {
		defer ms.callbacks.Done()
		defer func() {
			if r := recover(); r != nil {
				ms.log.Error("expire callback panicked",
					logger.SessionID(id),
					slog.Any("panic", r))
			}
		}()
		ms.onExpire(context.WithoutCancel(ctx), snapshot)
	}()
}

func (ms *MemoryStore) reclaimLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ms.reclaimExpired(ctx)
		}
	}
}

// reclaimExpired scans for expired sessions. The scan holds the read lock
// only long enough to snapshot candidates; each deletion then re-checks the
// timestamp under the write lock.
func (ms *MemoryStore) reclaimExpired(ctx context.Context) {
	type candidate struct {
		id     string
		seenAt time.Time
	}

	ms.mu.RLock()
	candidates := make([]candidate, 0)
	for id, sess := range ms.sessions {
		if ms.expired(sess) {
			candidates = append(candidates, candidate{id: id, seenAt: sess.UpdatedAt})
		}
	}
	ms.mu.RUnlock()

	for _, c := range candidates {
		ms.reclaim(ctx, c.id, c.seenAt)
	}
}
