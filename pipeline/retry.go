package pipeline

import (
	"context"
	"time"

	"github.com/fwojciec/qagen"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*qagen.Page, error)

// DefaultFetchRetryDelays returns the backoff delays for fetch retries:
// 1s, 2s, 4s.
func DefaultFetchRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetry attempts to fetch a URL with exponential backoff.
// It retries up to 3 times (4 total attempts) with delays of 1s, 2s, 4s.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc) (*qagen.Page, error) {
	return FetchWithRetryDelays(ctx, url, fetch, DefaultFetchRetryDelays())
}

// FetchWithRetryDelays is like FetchWithRetry but allows configurable
// delays, which keeps tests fast. Failures that cannot succeed on a
// second attempt (missing pages, oversized bodies) are not retried.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, delays []time.Duration) (*qagen.Page, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		page, err := fetch(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !retryableFetch(err) {
			break
		}
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}

// retryableFetch reports whether a fetch failure is worth retrying.
func retryableFetch(err error) bool {
	switch qagen.ErrorCode(err) {
	case qagen.ENOTFOUND, qagen.ETOOLARGE, qagen.EINVALID:
		return false
	}
	return true
}
