package tagscan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestRateLimiter_ExhaustAndRefill(t *testing.T) {
	clock := newClock()
	rl := newRateLimiter(3, time.Hour, clock.Now)

	for range 3 {
		assert.True(t, rl.TryConsume())
	}
	assert.False(t, rl.TryConsume())
	assert.Equal(t, 0, rl.Remaining())
	assert.Equal(t, time.Hour, rl.TimeUntilNextToken())

	clock.Advance(59 * time.Minute)
	assert.False(t, rl.TryConsume(), "partial interval grants nothing")
	assert.Equal(t, time.Minute, rl.TimeUntilNextToken())

	clock.Advance(time.Minute)
	assert.Equal(t, 3, rl.Remaining(), "refills to max at once")
	for range 3 {
		assert.True(t, rl.TryConsume())
	}
	assert.False(t, rl.TryConsume())
}

func TestRateLimiter_TimeUntilNextTokenWhenAvailable(t *testing.T) {
	rl := newRateLimiter(1, time.Hour, newClock().Now)
	assert.Equal(t, time.Duration(0), rl.TimeUntilNextToken())
}

func TestRateLimiter_RefillDoesNotAccumulate(t *testing.T) {
	clock := newClock()
	rl := newRateLimiter(2, time.Minute, clock.Now)

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 2, rl.Remaining(), "idle time never exceeds max")
}

func TestRateLimiter_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxTokens := rapid.IntRange(1, 10).Draw(t, "max")
		interval := time.Duration(rapid.IntRange(1, 120).Draw(t, "interval_s")) * time.Second
		clock := newClock()
		rl := newRateLimiter(maxTokens, interval, clock.Now)

		for range maxTokens {
			if !rl.TryConsume() {
				t.Fatal("fresh bucket should allow max consumptions")
			}
		}

		partial := time.Duration(rapid.Int64Range(0, int64(interval)-1).Draw(t, "partial"))
		clock.Advance(partial)
		if rl.TryConsume() {
			t.Fatalf("token granted after %s of %s", partial, interval)
		}

		clock.Advance(interval - partial)
		for range maxTokens {
			if !rl.TryConsume() {
				t.Fatal("full interval should restore every token")
			}
		}
		if rl.TryConsume() {
			t.Fatal("more than max tokens after refill")
		}
	})
}
