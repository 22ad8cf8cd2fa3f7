package service

import "sync"

// lockRegistry provides per-tournament mutual exclusion for reconciliation
// runs. Overlapping runs for the same tournament are rejected rather than
// queued: interleaved upserts against the same lookup tables could create
// duplicate rows, and the scheduler re-evaluates on its next tick anyway.
type lockRegistry struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{held: make(map[string]struct{})}
}

// tryAcquire attempts to take the lock for a key without blocking.
func (l *lockRegistry) tryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// release frees the lock for a key.
func (l *lockRegistry) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}
