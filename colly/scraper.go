// Package colly implements the scrape stage with a generic same-site crawler
// that downloads linked documents into a site's download directory.
package colly

import (
	"context"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/bloom"
	"github.com/fwojciec/docpipe/fs"
	"github.com/fwojciec/docpipe/goquery"
	"github.com/gocolly/colly/v2"
)

// Defaults for Scraper.
const (
	DefaultMaxDepth     = 2
	DefaultUserAgent    = "docpipe/1.0"
	DefaultTimeout      = 60 * time.Second
	DefaultParallelism  = 2
	DefaultMaxBodySize  = 100 << 20
	DefaultExpectedURLs = 10000
	DefaultSitemapPages = 200
)

// Result counts the outcome of scraping one site.
type Result struct {
	Pages      int
	Saved      int
	Downloaded int
	Existing   int
	Failed     int
}

// Scraper crawls a site from its base URL.
type Scraper struct {
	// Root is the directory holding every site's download directories.
	Root string

	// Extensions selects which linked files are downloaded.
	Extensions []string

	MaxDepth    int
	Delay       time.Duration
	Parallelism int
	UserAgent   string
	Timeout     time.Duration

	// SavePages keeps crawled HTML pages for the convert stage.
	SavePages bool

	// Sitemaps seeds the crawl with the site's sitemap URLs. Optional.
	Sitemaps docpipe.SitemapService

	// SitemapPages bounds the sitemap pages used as extra start points.
	SitemapPages int

	Logger *slog.Logger
}

// NewScraper creates a Scraper with default crawl settings.
func NewScraper(root string, exts []string) *Scraper {
	return &Scraper{
		Root:        root,
		Extensions:  exts,
		MaxDepth:    DefaultMaxDepth,
		Parallelism: DefaultParallelism,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,

		SitemapPages: DefaultSitemapPages,
	}
}

// Scrape crawls def and downloads new documents into its first download
// directory. Files already on disk are never downloaded again.
func (s *Scraper) Scrape(ctx context.Context, def docpipe.SiteDefinition) (*Result, error) {
	start, err := url.Parse(def.URL())
	if err != nil || start.Host == "" {
		return nil, docpipe.Errorf(docpipe.EINVALID, "invalid base URL for %s: %q", def.Name, def.URL())
	}
	dir := def.Directories(s.Root)[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	// Seed the filter with what is already on disk so known files are
	// recognized by name before any request is made.
	seen := bloom.NewFilter(DefaultExpectedURLs, 0.01)
	existing, err := fs.WalkFiles(ctx, dir, s.Extensions)
	if err != nil {
		return nil, err
	}
	for _, f := range existing {
		seen.Add(f.Name)
	}

	var (
		mu  sync.Mutex
		res Result
	)
	count := func(fn func(r *Result)) {
		mu.Lock()
		fn(&res)
		mu.Unlock()
	}

	c := colly.NewCollector(
		colly.MaxDepth(s.maxDepth()),
		colly.UserAgent(s.userAgent()),
		colly.Async(true),
	)
	c.MaxBodySize = DefaultMaxBodySize
	c.SetRequestTimeout(s.timeout())
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       s.Delay,
		Parallelism: s.parallelism(),
	}); err != nil {
		return nil, err
	}

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		count(func(res *Result) { res.Failed++ })
		s.logger().Warn("scrape request failed", "url", r.Request.URL.String(), "status", r.StatusCode, "err", err)
	})

	c.OnResponse(func(r *colly.Response) {
		u := r.Request.URL
		contentType := r.Headers.Get("Content-Type")

		if name := s.documentName(u, contentType); name != "" {
			target := filepath.Join(dir, name)
			if _, err := os.Stat(target); err == nil {
				count(func(res *Result) { res.Existing++ })
				return
			}
			if err := fs.WriteFileAtomic(target, r.Body, 0o644); err != nil {
				count(func(res *Result) { res.Failed++ })
				s.logger().Error("save document", "url", u.String(), "err", err)
				return
			}
			count(func(res *Result) { res.Downloaded++ })
			s.logger().Info("downloaded", "url", u.String(), "file", name)
			return
		}

		if !isHTML(contentType) {
			return
		}
		count(func(res *Result) { res.Pages++ })
		html := string(r.Body)

		if s.SavePages {
			if rel, err := fs.URLToPath(u.String(), ".html"); err == nil {
				if err := fs.WriteFileAtomic(filepath.Join(dir, "pages", rel), r.Body, 0o644); err == nil {
					count(func(res *Result) { res.Saved++ })
				}
			}
		}

		links, err := goquery.ExtractLinks(html, u.String(), s.Extensions)
		if err != nil {
			return
		}
		for _, doc := range links.Documents {
			if seen.TestAndAdd(doc) || seen.Test(fileName(doc)) {
				continue
			}
			_ = c.Visit(doc)
		}
		for _, page := range links.Pages {
			_ = r.Request.Visit(page)
		}
	})

	if err := c.Visit(start.String()); err != nil {
		return &res, docpipe.Errorf(docpipe.EINVALID, "visit %s: %s", start, err)
	}
	s.seedFromSitemaps(ctx, c, start.String(), seen)
	c.Wait()

	if err := ctx.Err(); err != nil {
		return &res, err
	}
	return &res, nil
}

// seedFromSitemaps queues the documents listed in the site's sitemaps and
// up to SitemapPages of its pages. A failed discovery only loses the seeds.
func (s *Scraper) seedFromSitemaps(ctx context.Context, c *colly.Collector, baseURL string, seen *bloom.Filter) {
	if s.Sitemaps == nil {
		return
	}
	urls, err := s.Sitemaps.DiscoverURLs(ctx, baseURL)
	if err != nil {
		s.logger().Warn("sitemap discovery failed", "url", baseURL, "err", err)
		return
	}

	var docs, pages int
	for _, u := range urls {
		if fs.MatchExtension(fileName(u), s.Extensions) {
			if seen.TestAndAdd(u) || seen.Test(fileName(u)) {
				continue
			}
			if c.Visit(u) == nil {
				docs++
			}
			continue
		}
		if pages >= s.SitemapPages {
			continue
		}
		if c.Visit(u) == nil {
			pages++
		}
	}
	s.logger().Info("sitemap seeds", "url", baseURL, "listed", len(urls), "documents", docs, "pages", pages)
}

// documentName returns the local file name for a downloadable response, or
// "" when the response is not a document to keep.
func (s *Scraper) documentName(u *url.URL, contentType string) string {
	name := fileName(u.String())
	if fs.MatchExtension(name, s.Extensions) {
		return name
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/pdf" && fs.MatchExtension(".pdf", s.Extensions) && name != "" {
		return name + ".pdf"
	}
	return ""
}

// fileName returns the unescaped last path segment of rawURL.
func fileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "/" || name == "." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func (s *Scraper) maxDepth() int {
	if s.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return s.MaxDepth
}

func (s *Scraper) userAgent() string {
	if s.UserAgent == "" {
		return DefaultUserAgent
	}
	return s.UserAgent
}

func (s *Scraper) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

func (s *Scraper) parallelism() int {
	if s.Parallelism <= 0 {
		return DefaultParallelism
	}
	return s.Parallelism
}

func (s *Scraper) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
