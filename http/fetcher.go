// Package http provides HTTP-based implementations of qagen.Fetcher,
// qagen.SitemapService, and qagen.RobotsChecker for scraping static
// documentation sites.
package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/qagen"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBytes is the default response size limit. Documentation
// pages larger than this are rejected with ETOOLARGE.
const DefaultMaxBytes = 10 << 20 // 10 MB

// defaultUserAgent identifies the scraper to target sites.
const defaultUserAgent = "qagen/1.0 (+https://github.com/fwojciec/qagen)"

// Ensure Fetcher implements qagen.Fetcher at compile time.
var _ qagen.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages from URLs using plain HTTP requests.
// It does not execute JavaScript; use rod.Fetcher for sites that
// render content client-side.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxBytes sets the response size limit.
// Defaults to DefaultMaxBytes (10 MB) if not specified.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		maxBytes:  DefaultMaxBytes,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the page at the given URL. Redirects are followed.
// Failures are classified: ETIMEOUT for deadline overruns, ENOTFOUND
// for 404/410, ETOOLARGE for oversized responses, EUNAVAILABLE for
// 5xx, EUNREACHABLE for everything else at the network layer.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*qagen.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, qagen.Errorf(qagen.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// proceed
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, qagen.Errorf(qagen.ENOTFOUND, "HTTP %d for %s", resp.StatusCode, url)
	case resp.StatusCode >= 500:
		return nil, qagen.Errorf(qagen.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	default:
		return nil, qagen.Errorf(qagen.EUNREACHABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	// Read one byte past the limit so oversized bodies are detectable.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, classifyTransportError(url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, qagen.Errorf(qagen.ETOOLARGE, "response for %s exceeds %d bytes", url, f.maxBytes)
	}

	return &qagen.Page{
		URL:       url,
		HTML:      string(body),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Close releases resources. For HTTP fetcher this only drops idle
// connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// classifyTransportError maps network-layer failures onto fetch error codes.
func classifyTransportError(url string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return qagen.Errorf(qagen.ETIMEOUT, "fetching %s: %v", url, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return qagen.Errorf(qagen.ETIMEOUT, "fetching %s: %v", url, err)
	case errors.Is(err, context.Canceled):
		return err
	}
	return qagen.Errorf(qagen.EUNREACHABLE, "fetching %s: %v", url, err)
}
