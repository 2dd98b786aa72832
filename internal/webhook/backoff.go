package webhook

import (
	"math/rand/v2"
	"time"
)

// BackoffConfig controls the retry schedule. Delays grow as
// base * 2^(attempt-1), capped at Max, with a random jitter fraction added
// on top so a burst of simultaneous failures does not retry in lockstep.
type BackoffConfig struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

// DefaultBackoff matches the configuration defaults: 30s base, 1h cap,
// 25% jitter.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		Base:   30 * time.Second,
		Max:    time.Hour,
		Jitter: 0.25,
	}
}

// Next returns the delay before retry number attempt (1-based: attempt 1 is
// the delay after the first failure). Jitter is applied after the cap so
// two deliveries failing in the same tick still spread out.
func (c BackoffConfig) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}

	delay := c.Base << shift
	if delay <= 0 || delay > c.Max {
		delay = c.Max
	}

	if c.Jitter > 0 {
		delay += time.Duration(rand.Float64() * c.Jitter * float64(delay))
	}

	return delay
}
