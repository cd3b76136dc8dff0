// Package keylock implements non-blocking per-key mutual exclusion.
//
// The login engine serializes step processing per session with it: at most
// one transition runs for a given session id, while transitions for
// different sessions proceed fully in parallel.
//
//	kl := keylock.New()
//	if !kl.TryLock(sessionID) {
//		return ErrBusy
//	}
//	defer kl.Unlock(sessionID)
package keylock
