package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Buckets idle for this long are dropped by the eviction loop.
const staleAfter = 10 * time.Minute

// bucket tracks the remaining tokens for one key. Tokens refill lazily on
// access, so an idle bucket costs nothing until it is touched or evicted.
type bucket struct {
	tokens     float64
	refilledAt time.Time
}

func (b *bucket) refill(now time.Time, rate, burst float64) {
	b.tokens = min(burst, b.tokens+now.Sub(b.refilledAt).Seconds()*rate)
	b.refilledAt = now
}

// MemoryLimiter implements Limiter with an in-process token bucket per key.
// Suitable for single-instance deployments; a multi-instance deployment
// would need a shared backend behind the same Limiter interface.
type MemoryLimiter struct {
	rate  float64 // tokens added per second
	burst float64 // bucket capacity
	clock func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryLimiter creates a limiter allowing a sustained rate of requests
// per second per key, with bursts up to burst. A background goroutine evicts
// idle buckets; call Close to stop it.
func NewMemoryLimiter(rate float64, burst int) *MemoryLimiter {
	m := &MemoryLimiter{
		rate:    rate,
		burst:   float64(burst),
		clock:   time.Now,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go m.evictLoop()
	return m
}

// Allow consumes one token from key's bucket. False means rate limited.
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: m.burst, refilledAt: now}
		m.buckets[key] = b
	} else {
		b.refill(now, m.rate, m.burst)
	}

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Close stops the eviction goroutine. Safe to call multiple times.
func (m *MemoryLimiter) Close() error {
	m.stopOnce.Do(func() { close(m.done) })
	return nil
}

func (m *MemoryLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

// evictIdle drops buckets whose last access is older than staleAfter.
// refilledAt doubles as a last-access stamp since Allow refills on every hit.
func (m *MemoryLimiter) evictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.clock().Add(-staleAfter)
	for key, b := range m.buckets {
		if b.refilledAt.Before(cutoff) {
			delete(m.buckets, key)
		}
	}
}
