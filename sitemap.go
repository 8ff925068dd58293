package docpipe

import "context"

// SitemapService lists the URLs a site publishes in its sitemaps.
type SitemapService interface {
	// DiscoverURLs returns the URLs listed by the sitemaps of the site at
	// baseURL. Sitemaps are located through robots.txt, then /sitemap.xml.
	// A site without sitemaps yields an empty slice. When baseURL has a
	// path, only URLs below that path are returned.
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}
