package qagen

import (
	"context"
	"time"
)

// Page represents a fetched documentation page. Pages are immutable once
// fetched; the extractor consumes them and they are not retained.
type Page struct {
	URL       string
	HTML      string
	FetchedAt time.Time
}

// Fetcher retrieves raw pages from URLs.
// Implementations may use plain HTTP or browser automation for
// JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the page at the URL.
	// The context controls timeout and cancellation. Failures are
	// classified by error code: ETIMEOUT, ENOTFOUND, EUNREACHABLE,
	// ETOOLARGE.
	Fetch(ctx context.Context, url string) (*Page, error)

	// Close releases fetcher resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// LinkExtractor discovers same-site links from HTML for multi-page scrapes.
type LinkExtractor interface {
	// ExtractLinks parses HTML and returns absolute same-host URLs.
	// The baseURL is used to resolve relative hrefs. Fragments are
	// stripped and non-document assets (images, archives) are skipped.
	ExtractLinks(html string, baseURL string) ([]string, error)
}

// RobotsChecker reports whether a URL may be fetched under the target
// site's robots.txt rules.
type RobotsChecker interface {
	// Allowed returns true if robots.txt permits fetching the URL.
	// Sites without a readable robots.txt permit everything.
	Allowed(ctx context.Context, url string) bool
}
