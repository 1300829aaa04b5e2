// Package rod implements qagen.Fetcher using Chrome browser automation.
// It renders JavaScript-heavy documentation sites that plain HTTP
// fetching cannot read.
package rod

import (
	"context"
	"errors"
	"time"

	"github.com/fwojciec/qagen"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements qagen.Fetcher at compile time.
var _ qagen.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using a managed headless
// Chrome browser. Fetcher is safe for concurrent use by multiple
// goroutines.
type Fetcher struct {
	manager *BrowserManager
}

// NewFetcher creates a new Fetcher backed by a recycled headless Chrome
// browser. Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...ManagerOption) (*Fetcher, error) {
	manager, err := NewBrowserManager(opts...)
	if err != nil {
		return nil, err
	}
	return &Fetcher{manager: manager}, nil
}

// Fetch navigates to the URL and returns the rendered page.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*qagen.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser := f.manager.Browser()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, classifyError(url, err)
	}
	defer page.Close()

	// Scope all subsequent operations to the caller's context.
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return nil, classifyError(url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return nil, classifyError(url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, classifyError(url, err)
	}

	f.manager.IncrementPageCount()

	return &qagen.Page{
		URL:       url,
		HTML:      html,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// classifyError maps browser failures onto fetch error codes.
func classifyError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return qagen.Errorf(qagen.ETIMEOUT, "request to %s timed out", url)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return qagen.Errorf(qagen.EUNREACHABLE, "failed to render %s: %v", url, err)
}
