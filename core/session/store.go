package session

import (
	"context"
	"time"
)

// ExpireFunc is invoked with the pre-deletion snapshot of every session
// reclaimed by TTL. It is never invoked for explicit deletes.
type ExpireFunc func(ctx context.Context, sess Session)

// Store is the persistence contract for sessions. Implementations must be
// safe for concurrent use and must never return an entry whose TTL has
// lapsed, even if the reclamation loop has not caught up yet.
type Store interface {
	// CreateSession allocates a unique unpredictable ID, stores a pending
	// session with the given params and returns it.
	CreateSession(ctx context.Context, params CreateParams) (Session, error)

	// GetSession returns the current record or ErrNotFound. Expiry is
	// checked lazily on every read in addition to the background loop.
	GetSession(ctx context.Context, id string) (Session, error)

	// UpdateSession replaces the stored record and refreshes UpdatedAt.
	// Returns ErrNotFound for unknown or reclaimed ids and ErrIDMismatch
	// when sess.ID is set and differs from id.
	UpdateSession(ctx context.Context, id string, sess Session) error

	// DeleteSession removes the session. Idempotent: deleting a missing id
	// is not an error. Explicit deletes do not trigger the expire callback.
	DeleteSession(ctx context.Context, id string) error

	// Initialize starts the background reclamation loop when a TTL is
	// configured. Idempotent.
	Initialize(ctx context.Context) error

	// Shutdown stops the reclamation loop and releases resources. Further
	// operations fail with ErrClosed. Idempotent.
	Shutdown(ctx context.Context) error
}

// ValidateTTLConfig enforces the TTL/cleanup pairing shared by all store
// implementations: a finite TTL requires a cleanup interval and vice versa,
// and neither may be negative. A zero TTL means sessions never expire.
func ValidateTTLConfig(ttl, cleanupInterval time.Duration) error {
	if ttl < 0 || cleanupInterval < 0 {
		return ErrNegativeDuration
	}
	if ttl > 0 && cleanupInterval == 0 {
		return ErrTTLWithoutCleanup
	}
	if ttl == 0 && cleanupInterval > 0 {
		return ErrCleanupWithoutTTL
	}
	return nil
}
