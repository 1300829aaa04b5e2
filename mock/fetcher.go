// Package mock provides mock implementations of qagen interfaces for testing.
package mock

import (
	"context"

	"github.com/fwojciec/qagen"
)

var _ qagen.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of qagen.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*qagen.Page, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*qagen.Page, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}
