package keylock

import "sync"

// KeyLock provides mutual exclusion per string key. Locks for distinct keys
// are fully independent; a key occupies memory only while its lock is held,
// so the internal map never grows with the number of keys ever seen.
type KeyLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{held: make(map[string]struct{})}
}

// TryLock acquires the lock for key without blocking. It reports whether
// the lock was acquired; false means another holder is in flight.
func (kl *KeyLock) TryLock(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if _, ok := kl.held[key]; ok {
		return false
	}
	kl.held[key] = struct{}{}
	return true
}

// Unlock releases the lock for key. Unlocking a key that is not held is a
// programming error and panics, mirroring sync.Mutex semantics.
func (kl *KeyLock) Unlock(key string) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if _, ok := kl.held[key]; !ok {
		panic("keylock: unlock of unlocked key")
	}
	delete(kl.held, key)
}

// Len reports the number of currently held keys. Intended for tests.
func (kl *KeyLock) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.held)
}
