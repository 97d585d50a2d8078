// ABOUTME: Thread-safe TTL cache for deduplicating feedback submissions
// ABOUTME: Backs the Idempotency-Key handling so a retried POST is not re-applied

package dedupe

import (
	"sync"
	"time"
)

// Cache tracks recently seen idempotency keys so a client retry of a
// feedback submission is rejected instead of re-running the turn. Entries
// expire after a TTL; a background goroutine sweeps expired keys.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a dedupe cache with the given TTL and maximum size.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		seen:    make(map[string]time.Time),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// CheckAndMark atomically reports whether key was already seen within the
// TTL, marking it if not. True means duplicate: reject the request.
func (c *Cache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if at, ok := c.seen[key]; ok && time.Since(at) < c.ttl {
		return true
	}

	if len(c.seen) >= c.maxSize {
		c.evictLocked()
	}
	c.seen[key] = time.Now()
	return false
}

// evictLocked drops expired entries and, if the cache is still full, the
// oldest entry.
func (c *Cache) evictLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for k, at := range c.seen {
		if time.Since(at) >= c.ttl {
			delete(c.seen, k)
			continue
		}
		if oldestKey == "" || at.Before(oldestAt) {
			oldestKey, oldestAt = k, at
		}
	}
	if len(c.seen) >= c.maxSize && oldestKey != "" {
		delete(c.seen, oldestKey)
	}
}

// Forget releases key so it can be marked again. Callers use it to return a
// reservation when the work guarded by the key did not commit.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, key)
}

// sweep clears expired entries periodically until Close.
func (c *Cache) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for k, at := range c.seen {
				if time.Since(at) >= c.ttl {
					delete(c.seen, k)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// Close stops the background sweeper. Safe to call once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// Len returns the number of live entries, for tests and health reporting.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
