// ABOUTME: Per-session keyed mutexes serializing feedback turns
// ABOUTME: One lock per session id; other sessions' turns proceed unimpeded

package workflow

import "sync"

// sessionLocks hands out one mutex per session id. Locks are never released
// back; sessions live for the process lifetime, so neither do their locks.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the mutex for id and returns its unlock func.
func (l *sessionLocks) acquire(id string) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
