package ratelimit

import (
    "sync"
    "time"
)

// Buckets idle longer than this are dropped on the next sweep, so maps keyed
// by client address or symbol do not grow without bound.
const maxIdle = 10 * time.Minute

// sweepAt is the map size that triggers an idle sweep.
const sweepAt = 10_000

type bucket struct {
    tokens     float64
    capacity   float64
    refillRate float64 // tokens per second
    last       time.Time
}

type Limiter struct {
    mu sync.Mutex
    m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow returns true if one token can be consumed for key. The bucket starts
// full at capacity and refills continuously.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
    now := time.Now()
    l.mu.Lock()
    b, ok := l.m[key]
    if !ok {
        if len(l.m) >= sweepAt {
            l.sweep(now)
        }
        b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
        l.m[key] = b
    }
    // refill
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * b.refillRate
        if b.tokens > b.capacity { b.tokens = b.capacity }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens -= 1
        l.mu.Unlock()
        return true
    }
    l.mu.Unlock()
    return false
}

// sweep drops idle buckets. Caller holds the mutex.
func (l *Limiter) sweep(now time.Time) {
    for k, b := range l.m {
        if now.Sub(b.last) > maxIdle {
            delete(l.m, k)
        }
    }
}
