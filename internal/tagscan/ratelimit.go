package tagscan

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket that refills all at once. Tokens jump back to
// the maximum only after a full refill interval has elapsed since the last
// refill; partial intervals grant nothing.
type RateLimiter struct {
	mu             sync.Mutex
	maxTokens      int
	refillInterval time.Duration
	tokens         int
	lastRefill     time.Time
	now            func() time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	return newRateLimiter(maxTokens, refillInterval, time.Now)
}

func newRateLimiter(maxTokens int, refillInterval time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		maxTokens:      maxTokens,
		refillInterval: refillInterval,
		tokens:         maxTokens,
		lastRefill:     now(),
		now:            now,
	}
}

// refill must be called with mu held.
func (r *RateLimiter) refill() {
	now := r.now()
	if now.Sub(r.lastRefill) >= r.refillInterval {
		r.tokens = r.maxTokens
		r.lastRefill = now
	}
}

// TryConsume takes one token if available.
func (r *RateLimiter) TryConsume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens <= 0 {
		return false
	}
	r.tokens--
	return true
}

// Remaining returns the tokens currently available.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	return r.tokens
}

// TimeUntilNextToken returns zero when a token is available, otherwise the
// time left until the next refill.
func (r *RateLimiter) TimeUntilNextToken() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	if r.tokens > 0 {
		return 0
	}
	return r.untilRefillLocked()
}

// untilRefill returns the time left until the bucket refills, regardless of
// how many tokens remain.
func (r *RateLimiter) untilRefill() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill()
	return r.untilRefillLocked()
}

func (r *RateLimiter) untilRefillLocked() time.Duration {
	return max(r.refillInterval-r.now().Sub(r.lastRefill), 0)
}
