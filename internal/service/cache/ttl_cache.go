package cache

import (
	"context"
	"sync"
	"time"
)

// maxEntries bounds the in-process cache. Valuation lookups key on close
// timestamps, so distinct keys keep accumulating for as long as the
// process runs.
const maxEntries = 100_000

type entry struct {
	b   []byte
	exp time.Time
}

// TTLCache is a process-local BytesCache for single-instance deployments
// that run without Redis.
type TTLCache struct {
	mu sync.Mutex
	m  map[string]entry
}

func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry)}
}

func (c *TTLCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && now.After(e.exp) {
		delete(c.m, key)
		return nil, false, nil
	}
	return e.b, true, nil
}

func (c *TTLCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	now := time.Now()
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.m) >= maxEntries {
		c.evict(now)
	}
	c.m[key] = entry{b: value, exp: exp}
	return nil
}

// evict drops expired entries, then arbitrary ones until a tenth of the
// capacity is free again. Caller holds the mutex.
func (c *TTLCache) evict(now time.Time) {
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
		}
	}
	for k := range c.m {
		if len(c.m) <= maxEntries-maxEntries/10 {
			break
		}
		delete(c.m, k)
	}
}
