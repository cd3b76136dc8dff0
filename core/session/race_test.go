package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hoyoauth/core/session"
)

// TestMemoryStore_ConcurrentMixedOperations hammers the store from many
// goroutines; run with -race to catch unsynchronized access.
func TestMemoryStore_ConcurrentMixedOperations(t *testing.T) {
	t.Parallel()

	store, err := session.NewMemoryStore(
		session.WithTTL(time.Hour),
		session.WithCleanupInterval(5*time.Millisecond),
	)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Initialize(ctx))
	t.Cleanup(func() { _ = store.Shutdown(context.Background()) })

	const goroutines = 20
	const iterations = 50

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				sess, err := store.CreateSession(ctx, session.CreateParams{
					Data: map[string]any{"n": 1},
				})
				if err != nil {
					t.Error(err)
					return
				}

				got, err := store.GetSession(ctx, sess.ID)
				if err != nil {
					t.Error(err)
					return
				}
				got.Data["n"] = 2

				got.Status = session.StatusAwaitingStep
				if err := store.UpdateSession(ctx, sess.ID, got); err != nil {
					t.Error(err)
					return
				}
				if err := store.DeleteSession(ctx, sess.ID); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}

// TestMemoryStore_ExpiryRace races readers against the reclamation loop on
// sessions right at their deadline: the expire callback must still fire at
// most once per session.
func TestMemoryStore_ExpiryRace(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	var fired sync.Map
	var doubles atomic.Int32

	store, err := session.NewMemoryStore(
		session.WithClock(clock.Now),
		session.WithTTL(time.Minute),
		session.WithCleanupInterval(time.Millisecond),
		session.WithOnExpire(func(ctx context.Context, sess session.Session) {
			if _, loaded := fired.LoadOrStore(sess.ID, struct{}{}); loaded {
				doubles.Add(1)
			}
		}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	ids := make([]string, 50)
	for i := range ids {
		sess, err := store.CreateSession(ctx, session.CreateParams{})
		require.NoError(t, err)
		ids[i] = sess.ID
	}

	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Initialize(ctx))

	// Readers race the loop for the same expired entries.
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				_, _ = store.GetSession(ctx, id)
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Shutdown(ctx))

	count := 0
	fired.Range(func(_, _ any) bool { count++; return true })
	assert.Equal(t, len(ids), count, "every session expired exactly once")
	assert.Zero(t, doubles.Load(), "no session may double-fire its expire callback")
}
