// Package session defines the session entity for a brokered login
// handshake and the Store contract for persisting it, together with the
// reference in-memory implementation.
//
// # Session Lifecycle
//
// A session tracks one login handshake against the identity provider. It
// is created pending, cycles through awaiting_step while the provider asks
// for more input, and ends in exactly one terminal status: success, error
// or expired. Terminal sessions are never advanced again; callers start a
// new session instead.
//
//	store, err := session.NewMemoryStore(
//		session.WithTTL(5*time.Minute),
//		session.WithCleanupInterval(30*time.Second),
//		session.WithOnExpire(func(ctx context.Context, sess session.Session) {
//			log.Printf("session %s expired", sess.ID)
//		}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := store.Initialize(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer store.Shutdown(context.Background())
//
//	sess, err := store.CreateSession(ctx, session.CreateParams{
//		Data: map[string]any{"chat_id": 42},
//	})
//
// # TTL and Reclamation
//
// TTL is sliding: a session's age is measured from its last update, so a
// login that keeps advancing never expires mid-step. Expiry is enforced
// twice: lazily on every read, and by a background reclamation loop that
// wakes every cleanup interval. Whichever path reclaims a session first
// fires the expire callback exactly once with the pre-deletion snapshot;
// explicit deletes never fire it. A zero TTL disables reclamation, and a
// TTL without a cleanup interval (or vice versa) is rejected at
// construction.
//
// # External Representation
//
// Session's JSON encoding round-trips losslessly, which is what IPC
// bridges and durable store backends rely on. PartialSession is the
// client-safe projection for login pages and step responses: it carries no
// credentials and no issued result.
//
// # Thread Safety
//
// Stores hand out deep copies, so callers can mutate returned sessions
// freely and persist them explicitly via UpdateSession.
package session
