package session

import "errors"

var (
	// ErrNotFound is returned when a session does not exist in the store,
	// including sessions already reclaimed by TTL.
	ErrNotFound = errors.New("session not found")
	// ErrIDMismatch is returned when an update carries a session whose ID
	// differs from the ID being updated.
	ErrIDMismatch = errors.New("session id mismatch")
	// ErrClosed is returned by store operations after Shutdown.
	ErrClosed = errors.New("session store closed")
	// ErrStorageFault wraps backend-level failures (unreachable Redis or
	// Postgres, corrupt records). Use errors.Is to detect it.
	ErrStorageFault = errors.New("session storage fault")
	// ErrIDGeneration is returned when a unique session ID cannot be produced.
	ErrIDGeneration = errors.New("failed to generate session id")

	// ErrTTLWithoutCleanup rejects a finite TTL configured without a
	// cleanup interval: sessions would expire but never be reclaimed.
	ErrTTLWithoutCleanup = errors.New("ttl configured without cleanup interval")
	// ErrCleanupWithoutTTL rejects a cleanup interval configured without a
	// TTL: the reclamation loop would have nothing to reclaim.
	ErrCleanupWithoutTTL = errors.New("cleanup interval configured without ttl")
	// ErrNegativeDuration rejects negative TTL or cleanup intervals.
	ErrNegativeDuration = errors.New("ttl and cleanup interval must not be negative")
)
