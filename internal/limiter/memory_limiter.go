package limiter

import (
	"sync"
	"time"
)

// idleTimeout is how long a client's bucket survives without requests
const idleTimeout = 5 * time.Minute

// tokenBucket holds one client's tokens.
// Tokens refill continuously at rate per second up to capacity; each request takes one.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	rate       float64
	lastRefill time.Time
}

func newTokenBucket(rate, capacity float64, now time.Time) *tokenBucket {
	// A fractional rate (e.g. 0.2/s) still needs room for one request
	capacity = max(capacity, 1.0)
	return &tokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		rate:       rate,
		lastRefill: now,
	}
}

func (b *tokenBucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*b.rate, b.capacity)
		b.lastRefill = now
	}

	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

func (b *tokenBucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastRefill
}

// MemoryLimiter keeps a token bucket per client in process memory.
// Suitable for a single server; use RedisLimiter when several servers share a limit.
type MemoryLimiter struct {
	buckets  sync.Map // client -> *tokenBucket
	rate     float64
	capacity float64
	now      func() time.Time

	cleanupMu   sync.Mutex
	lastCleanup time.Time
}

// NewMemoryLimiter creates a limiter allowing requestsPerSecond per client
// with bursts of up to burst requests. burst <= 0 means one second's worth.
func NewMemoryLimiter(requestsPerSecond float64, burst int) *MemoryLimiter {
	capacity := float64(burst)
	if burst <= 0 {
		capacity = requestsPerSecond
	}
	return &MemoryLimiter{
		rate:        requestsPerSecond,
		capacity:    capacity,
		now:         time.Now,
		lastCleanup: time.Now(),
	}
}

// Allow implements Limiter
func (rl *MemoryLimiter) Allow(client string) bool {
	now := rl.now()
	allowed := rl.bucket(client, now).take(now)
	rl.maybeCleanup(now)
	return allowed
}

// Clients returns the number of clients currently tracked
func (rl *MemoryLimiter) Clients() int {
	n := 0
	rl.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (rl *MemoryLimiter) bucket(client string, now time.Time) *tokenBucket {
	if value, ok := rl.buckets.Load(client); ok {
		return value.(*tokenBucket)
	}
	actual, _ := rl.buckets.LoadOrStore(client, newTokenBucket(rl.rate, rl.capacity, now))
	return actual.(*tokenBucket)
}

// maybeCleanup drops buckets of clients idle for idleTimeout, at most once per idleTimeout
func (rl *MemoryLimiter) maybeCleanup(now time.Time) {
	rl.cleanupMu.Lock()
	defer rl.cleanupMu.Unlock()

	if now.Sub(rl.lastCleanup) < idleTimeout {
		return
	}

	threshold := now.Add(-idleTimeout)
	rl.buckets.Range(func(key, value any) bool {
		if value.(*tokenBucket).idleSince().Before(threshold) {
			rl.buckets.Delete(key)
		}
		return true
	})
	rl.lastCleanup = now
}

// Close implements Limiter. Nothing to release.
func (rl *MemoryLimiter) Close() error {
	return nil
}
