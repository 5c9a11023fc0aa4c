package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count     int64
	value     string
	expiresAt time.Time
}

// MemoryCounter is an in-process Counter for tests and single-binary dev
// mode. Expiry is checked lazily on access; the clock is injectable so tests
// can drive TTL behavior deterministically.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCounter returns an empty in-process counter store.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{entries: make(map[string]entry), now: time.Now}
}

// SetClock replaces the time source; test helper.
func (c *MemoryCounter) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// IncrementAndExpire increments key and re-arms its expiry to ttl, returning
// the post-increment value. An expired key restarts from zero.
func (c *MemoryCounter) IncrementAndExpire(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e, ok := c.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = entry{}
	}
	e.count++
	e.expiresAt = now.Add(ttl)
	c.entries[key] = e
	return e.count, nil
}

// Exists reports whether key is present and not expired.
func (c *MemoryCounter) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return false, nil
	}
	return true, nil
}

// SetWithExpiry stores value under key with the given ttl.
func (c *MemoryCounter) SetWithExpiry(_ context.Context, key string, ttl time.Duration, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}
