package engine

import "sync"

// lockRegistry guarantees at most one running sync per merchant. A
// second trigger while one is active fails fast instead of queueing;
// callers poll status and retry.
type lockRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{active: make(map[string]struct{})}
}

// TryAcquire takes the merchant's lock if it is free.
func (l *lockRegistry) TryAcquire(merchantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.active[merchantID]; held {
		return false
	}
	l.active[merchantID] = struct{}{}
	return true
}

// Release frees the merchant's lock. Safe to call for a lock that is
// not held.
func (l *lockRegistry) Release(merchantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, merchantID)
}

// IsActive reports whether a run is currently in flight for the merchant.
func (l *lockRegistry) IsActive(merchantID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.active[merchantID]
	return held
}
