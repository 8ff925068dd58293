// Package http discovers document URLs from site sitemaps over HTTP.
package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/docpipe"
)

// Defaults for SitemapService.
const (
	DefaultMaxSitemaps = 50
	DefaultMaxURLs     = 50000
)

// Ensure SitemapService implements docpipe.SitemapService.
var _ docpipe.SitemapService = (*SitemapService)(nil)

// SitemapService reads robots.txt and sitemap XML, including gzipped
// sitemaps and sitemap indexes.
type SitemapService struct {
	client *http.Client

	UserAgent string

	// MaxSitemaps bounds the sitemap files read per discovery.
	MaxSitemaps int
	// MaxURLs bounds the URLs returned per discovery.
	MaxURLs int
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{
		client:      client,
		MaxSitemaps: DefaultMaxSitemaps,
		MaxURLs:     DefaultMaxURLs,
	}
}

// discovery holds the state of one DiscoverURLs call.
type discovery struct {
	queue []string
	read  map[string]bool
	seen  map[string]bool
	urls  []string
}

// DiscoverURLs finds all URLs from the site's sitemaps.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, docpipe.Errorf(docpipe.EINVALID, "invalid base URL %q", baseURL)
	}
	prefix := strings.TrimSuffix(base.Path, "/")
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	sitemaps, err := s.locate(ctx, root)
	if err != nil {
		return nil, err
	}

	d := &discovery{
		queue: sitemaps,
		read:  make(map[string]bool),
		seen:  make(map[string]bool),
		urls:  []string{},
	}
	for len(d.queue) > 0 && len(d.read) < s.maxSitemaps() && len(d.urls) < s.maxURLs() {
		next := d.queue[0]
		d.queue = d.queue[1:]
		if d.read[next] {
			continue
		}
		d.read[next] = true

		if err := s.read(ctx, next, prefix, d); err != nil {
			return nil, err
		}
	}
	return d.urls, nil
}

// locate returns the sitemaps declared in robots.txt, or /sitemap.xml when
// it exists and robots.txt declares none.
func (s *SitemapService) locate(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if body, err := s.get(ctx, robots); err == nil {
		declared := sitemapDirectives(body)
		body.Close()
		if len(declared) > 0 {
			return declared, nil
		}
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fallback := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	body, err := s.get(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	body.Close()
	return []string{fallback}, nil
}

// sitemapDirectives extracts Sitemap: lines from a robots.txt body.
func sitemapDirectives(r io.Reader) []string {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// read parses one sitemap. Indexes enqueue their children; URL sets add
// their locations below prefix.
func (s *SitemapService) read(ctx context.Context, sitemapURL, prefix string, d *discovery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// An unreachable child sitemap does not invalidate the others.
		return nil
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(strings.ToLower(sitemapURL), ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return fmt.Errorf("sitemap %s: %w", sitemapURL, err)
		}
		defer gz.Close()
		r = gz
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("empty sitemap %s", sitemapURL)
	}

	if root.Tag == "sitemapindex" {
		for _, loc := range root.FindElements("./sitemap/loc") {
			if u := strings.TrimSpace(loc.Text()); u != "" {
				d.queue = append(d.queue, u)
			}
		}
		return nil
	}

	for _, loc := range root.FindElements("./url/loc") {
		u := strings.TrimSpace(loc.Text())
		if u == "" || d.seen[u] || !underPrefix(u, prefix) {
			continue
		}
		d.seen[u] = true
		d.urls = append(d.urls, u)
		if len(d.urls) >= s.maxURLs() {
			return nil
		}
	}
	return nil
}

// underPrefix reports whether the path of rawURL is prefix or below it.
func underPrefix(rawURL, prefix string) bool {
	if prefix == "" {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Path == prefix || strings.HasPrefix(u.Path, prefix+"/")
}

// get fetches targetURL and returns the body of a 200 response.
func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}

func (s *SitemapService) maxSitemaps() int {
	if s.MaxSitemaps > 0 {
		return s.MaxSitemaps
	}
	return DefaultMaxSitemaps
}

func (s *SitemapService) maxURLs() int {
	if s.MaxURLs > 0 {
		return s.MaxURLs
	}
	return DefaultMaxURLs
}
