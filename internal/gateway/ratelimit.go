package gateway

import (
	"sync"
	"time"
)

// TokenBucket guards client-originated domain traffic for a single
// connection. Refill is quantised to whole intervals: lastRefill
// advances by elapsed intervals instead of snapping to now, so the
// fractional remainder is never lost and bursts are not inflated.
type TokenBucket struct {
	mu             sync.Mutex
	tokens         int
	capacity       int
	refillInterval time.Duration
	lastRefill     time.Time
	now            func() time.Time
}

func NewTokenBucket(capacity int, refillInterval time.Duration) *TokenBucket {
	return newTokenBucket(capacity, refillInterval, time.Now)
}

func newTokenBucket(capacity int, refillInterval time.Duration, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:         capacity,
		capacity:       capacity,
		refillInterval: refillInterval,
		lastRefill:     now(),
		now:            now,
	}
}

// Allow consumes one token if available. When the bucket is empty it
// reports the refill interval as a retry hint.
func (b *TokenBucket) Allow() (ok bool, retryAfter time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := b.now().Sub(b.lastRefill)
	if elapsed >= b.refillInterval {
		intervals := int(elapsed / b.refillInterval)

		b.tokens = min(b.capacity, b.tokens+intervals*b.capacity)
		b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * b.refillInterval)
	}

	if b.tokens > 0 {
		b.tokens--

		return true, 0
	}

	return false, b.refillInterval
}
