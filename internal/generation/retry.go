package generation

import (
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration for model calls.
type RetryConfig struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig makes a single attempt. Raise MaxAttempts to retry
// transient provider failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       1,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// backoff computes exponential backoff with +/- 25% jitter.
func (c RetryConfig) backoff(attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	d := time.Duration(float64(c.BackoffBase) * multiplier)
	if c.MaxBackoff > 0 && d > c.MaxBackoff {
		d = c.MaxBackoff
	}

	jitter := float64(d) * 0.25 * (rand.Float64()*2 - 1) // #nosec G404 -- jitter only
	return d + time.Duration(jitter)
}
