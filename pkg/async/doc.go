// Package async provides fire-and-forget execution with future-based
// observation.
//
// The login engine uses it to dispatch lifecycle callbacks without
// blocking state transitions:
//
//	future := async.Exec(ctx, sess, func(ctx context.Context, s session.Session) error {
//		return notifyBot(ctx, s)
//	})
//
//	// The transition proceeds immediately; a test can still synchronize:
//	if err := future.AwaitWithTimeout(time.Second); err != nil {
//		log.Println("callback failed:", err)
//	}
//
// Panics inside the executed function are recovered and reported as errors
// wrapping ErrPanic, so a misbehaving callback never rolls back or crashes
// the transition that scheduled it.
package async
