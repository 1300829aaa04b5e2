package mock

import (
	"context"

	"github.com/fwojciec/qagen"
)

var _ qagen.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of qagen.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *qagen.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *qagen.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
