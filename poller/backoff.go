package poller

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoff implements exponential backoff with full jitter, grounded on
// internal/infra/throttle.Throttler's retry strategy (rate.New's
// exponential-with-jitter delay calculation), reused here for the Poller's
// retry pacing after a failed getUpdates call rather than for a token
// bucket.
type backoff struct {
	base       time.Duration
	max        time.Duration
	multiplier float64
	attempt    int
	randomFn   func() float64
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{
		base:       base,
		max:        max,
		multiplier: 2,
		randomFn:   rand.Float64,
	}
}

// next returns the delay to wait before the next retry and advances the
// attempt counter.
func (b *backoff) next() time.Duration {
	delay := float64(b.base) * math.Pow(b.multiplier, float64(b.attempt))
	if delay > float64(b.max) {
		delay = float64(b.max)
	}
	b.attempt++
	jittered := delay * b.randomFn()
	return time.Duration(jittered)
}

// reset zeroes the attempt counter after a successful call.
func (b *backoff) reset() {
	b.attempt = 0
}
