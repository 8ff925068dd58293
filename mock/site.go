package mock

import (
	"context"

	"github.com/fwojciec/docpipe"
)

var _ docpipe.SiteService = (*SiteService)(nil)

// SiteService is a mock implementation of docpipe.SiteService.
type SiteService struct {
	FindOrCreateSiteFn func(ctx context.Context, name, baseURL string) (*docpipe.Site, error)
	FindSiteByIDFn     func(ctx context.Context, id int64) (*docpipe.Site, error)
	FindSitesFn        func(ctx context.Context, filter docpipe.SiteFilter) ([]*docpipe.Site, error)
}

func (s *SiteService) FindOrCreateSite(ctx context.Context, name, baseURL string) (*docpipe.Site, error) {
	return s.FindOrCreateSiteFn(ctx, name, baseURL)
}

func (s *SiteService) FindSiteByID(ctx context.Context, id int64) (*docpipe.Site, error) {
	return s.FindSiteByIDFn(ctx, id)
}

func (s *SiteService) FindSites(ctx context.Context, filter docpipe.SiteFilter) ([]*docpipe.Site, error) {
	return s.FindSitesFn(ctx, filter)
}
