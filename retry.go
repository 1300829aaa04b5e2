package qagen

import (
	"math/rand/v2"
	"time"
)

// RetryPolicy describes exponential backoff for transient generation
// failures (ERATELIMITED, EUNAVAILABLE).
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry. It doubles with each
	// subsequent retry.
	BaseDelay time.Duration

	// Jitter adds up to 50% random variation to each delay when set.
	Jitter bool
}

// DefaultRetryPolicy returns the default policy: 3 attempts, 1s base
// delay, jitter enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Jitter:      true,
	}
}

// Backoff returns how long to wait before the given retry (1-based).
func (p RetryPolicy) Backoff(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	delay := base << (retry - 1)
	if p.Jitter {
		delay += time.Duration(rand.Int64N(int64(delay)/2 + 1))
	}
	return delay
}
