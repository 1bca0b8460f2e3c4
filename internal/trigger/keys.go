package trigger

import "sync"

// KeyedLimiter serializes units of work that share a concurrency key,
// standing in for a managed task-queue's concurrency-limit contract.
//
// Each key carries an effective limit of one: a second caller with the
// same key blocks until the first finishes. Different keys run fully in
// parallel. Keys are retained for the limiter's lifetime; the key space
// (sync kind x workspace) is small and bounded.
type KeyedLimiter struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLimiter creates an empty limiter.
func NewKeyedLimiter() *KeyedLimiter {
	return &KeyedLimiter{locks: make(map[string]*sync.Mutex)}
}

// Do runs fn while holding the lock for key.
func (l *KeyedLimiter) Do(key string, fn func() error) error {
	lock := l.lockFor(key)
	lock.Lock()
	defer lock.Unlock()
	return fn()
}

func (l *KeyedLimiter) lockFor(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}
