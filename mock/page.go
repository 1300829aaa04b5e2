package mock

import (
	"context"

	"github.com/fwojciec/qagen"
)

var _ qagen.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of qagen.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html, baseURL string) ([]string, error)
}

func (e *LinkExtractor) ExtractLinks(html, baseURL string) ([]string, error) {
	return e.ExtractLinksFn(html, baseURL)
}

var _ qagen.RobotsChecker = (*RobotsChecker)(nil)

// RobotsChecker is a mock implementation of qagen.RobotsChecker.
type RobotsChecker struct {
	AllowedFn func(ctx context.Context, url string) bool
}

func (c *RobotsChecker) Allowed(ctx context.Context, url string) bool {
	if c.AllowedFn == nil {
		return true
	}
	return c.AllowedFn(ctx, url)
}
