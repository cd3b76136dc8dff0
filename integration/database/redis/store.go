package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/hoyoauth/core/logger"
	"github.com/dmitrymomot/hoyoauth/core/session"
)

const (
	sessionKeyPrefix = "hoyoauth:session:"
	expirationsKey   = "hoyoauth:expirations"

	// reclaimBatchSize bounds one reclamation pass so a huge backlog of
	// expired sessions cannot monopolize the loop.
	reclaimBatchSize = 256

	// backstopGrace extends the native key expiry past the logical
	// deadline. Reclamation normally wins the race and reads the snapshot;
	// the native expiry only cleans up after a process that never came
	// back.
	backstopGrace = time.Hour
)

// claimExpiredScript atomically deletes a session if its expiry deadline,
// re-read inside Redis, has passed. The deadline is rescored on every
// update, so a session advanced concurrently with reclamation survives:
// the score check is the compare-and-delete guard. Returns the pre-delete
// blob so the expire callback gets the snapshot.
var claimExpiredScript = redis.NewScript(`
local score = redis.call("ZSCORE", KEYS[2], ARGV[1])
if not score then
  return false
end
if tonumber(score) > tonumber(ARGV[2]) then
  return false
end
redis.call("ZREM", KEYS[2], ARGV[1])
local blob = redis.call("GET", KEYS[1])
if not blob then
  return false
end
redis.call("DEL", KEYS[1])
return blob
`)

// updateScript replaces a session blob only if it still exists and
// refreshes both the expiry deadline and the native backstop expiry in
// the same atomic step.
var updateScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if ARGV[3] ~= "" then
  redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[4])
  redis.call("ZADD", KEYS[2], ARGV[3], ARGV[2])
else
  redis.call("SET", KEYS[1], ARGV[1])
end
return 1
`)

// Store is a Redis-backed session.Store. Sessions are stored as JSON blobs
// with an expiry-deadline zset as the reclamation index. TTL is sliding:
// every update pushes the deadline out by the full TTL.
type Store struct {
	client *redis.Client

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

// NewStore creates a Redis-backed session store over an established client.
// Contradictory TTL configuration is rejected eagerly.
func NewStore(client *redis.Client, opts ...StoreOption) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	s := &Store{
		client: client,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := session.ValidateTTLConfig(s.ttl, s.cleanupInterval); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize starts the reclamation loop when a TTL is configured. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
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

	s.log.InfoContext(ctx, "redis session reclamation started",
		slog.Duration("ttl", s.ttl),
		slog.Duration("cleanup_interval", s.cleanupInterval))
	return nil
}

// Shutdown stops the reclamation loop and marks the store closed.
// The Redis client itself stays open; the host owns it. Idempotent.
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

// CreateSession allocates an unpredictable ID and stores a pending session.
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

	for range 5 {
		id, err := session.NewID()
		if err != nil {
			return session.Session{}, session.ErrIDGeneration
		}
		sess.ID = id

		blob, err := json.Marshal(sess)
		if err != nil {
			return session.Session{}, errors.Join(session.ErrStorageFault, err)
		}

		ok, err := s.client.SetNX(ctx, sessionKeyPrefix+id, blob, s.backstop()).Result()
		if err != nil {
			return session.Session{}, errors.Join(session.ErrStorageFault, err)
		}
		if !ok {
			continue
		}
		if s.ttl > 0 {
			deadline := float64(now.Add(s.ttl).UnixMilli())
			if err := s.client.ZAdd(ctx, expirationsKey, redis.Z{Score: deadline, Member: id}).Err(); err != nil {
				return session.Session{}, errors.Join(session.ErrStorageFault, err)
			}
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

	blob, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Session{}, session.ErrNotFound
	}
	if err != nil {
		return session.Session{}, errors.Join(session.ErrStorageFault, err)
	}

	var sess session.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		return session.Session{}, errors.Join(session.ErrStorageFault, err)
	}

	if s.ttl > 0 && s.now().Sub(sess.UpdatedAt) >= s.ttl {
		s.claimExpired(ctx, id)
		return session.Session{}, session.ErrNotFound
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

	blob, err := json.Marshal(sess)
	if err != nil {
		return errors.Join(session.ErrStorageFault, err)
	}

	score, backstop := "", ""
	if s.ttl > 0 {
		score = strconv.FormatInt(now.Add(s.ttl).UnixMilli(), 10)
		backstop = strconv.FormatInt(s.backstop().Milliseconds(), 10)
	}

	updated, err := updateScript.Run(ctx, s.client,
		[]string{sessionKeyPrefix + id, expirationsKey},
		blob, id, score, backstop,
	).Int64()
	if err != nil {
		return errors.Join(session.ErrStorageFault, err)
	}
	if updated == 0 {
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

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+id)
	pipe.ZRem(ctx, expirationsKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(session.ErrStorageFault, err)
	}
	return nil
}

// backstop is the native key expiry: the logical deadline plus a grace
// window so reclamation sees the snapshot before Redis drops the key.
func (s *Store) backstop() time.Duration {
	if s.ttl == 0 {
		return 0
	}
	return s.ttl + backstopGrace
}

func (s *Store) isClosed() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.closed
}

// claimExpired runs the atomic compare-and-delete and, when this caller
// won the claim, fires the expire callback with the snapshot.
func (s *Store) claimExpired(ctx context.Context, id string) {
	blob, err := claimExpiredScript.Run(ctx, s.client,
		[]string{sessionKeyPrefix + id, expirationsKey},
		id, s.now().UnixMilli(),
	).Text()
	if errors.Is(err, redis.Nil) {
		return // claimed by someone else or rescued by an update
	}
	if err != nil {
		s.log.ErrorContext(ctx, "failed to reclaim expired session",
			logger.SessionID(id), logger.Error(err))
		return
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(blob), &sess); err != nil {
		s.log.ErrorContext(ctx, "reclaimed session blob is corrupt",
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

func (s *Store) reclaimExpired(ctx context.Context) {
	now := strconv.FormatInt(s.now().UnixMilli(), 10)
	ids, err := s.client.ZRangeByScore(ctx, expirationsKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   now,
		Count: reclaimBatchSize,
	}).Result()
	if err != nil {
		s.log.ErrorContext(ctx, "failed to scan expired sessions", logger.Error(err))
		return
	}
	for _, id := range ids {
		s.claimExpired(ctx, id)
	}
}
