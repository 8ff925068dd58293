// Package goquery discovers links and page metadata in scraped HTML.
package goquery

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docpipe"
)

// Links are the same-site links found on a page, split by kind.
type Links struct {
	// Pages are HTML pages to crawl further.
	Pages []string

	// Documents are downloadable files whose extension is in the
	// extraction filter.
	Documents []string
}

// ExtractLinks returns the page and document links of html. Relative links
// are resolved against pageURL; fragments are dropped; links leaving the
// site are ignored. Subdomains of the page host count as the same site.
func ExtractLinks(html, pageURL string, docExts []string) (*Links, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, docpipe.Errorf(docpipe.EINVALID, "failed to parse HTML: %v", err)
	}

	// A <base href> changes how relative links resolve.
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b := resolveURL(base, href); b != "" {
			if u, err := url.Parse(b); err == nil {
				base = u
			}
		}
	}

	links := &Links{}
	seen := make(map[string]bool)
	doc.Find("a[href], iframe[src], embed[src], object[data]").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", sel.AttrOr("src", sel.AttrOr("data", "")))
		if href == "" || isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		u, err := url.Parse(resolved)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		if !isSameSite(base.Hostname(), u.Hostname()) {
			return
		}
		seen[resolved] = true

		if hasExtension(u.Path, docExts) {
			links.Documents = append(links.Documents, resolved)
			return
		}
		if isAsset(u.Path) {
			return
		}
		links.Pages = append(links.Pages, resolved)
	})
	return links, nil
}

// CanonicalURL returns the URL a page declares for itself through a
// canonical link or Open Graph metadata, or "".
func CanonicalURL(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.HasPrefix(href, "http") {
		return strings.TrimSpace(href)
	}
	if content, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok && strings.HasPrefix(content, "http") {
		return strings.TrimSpace(content)
	}
	return ""
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed or if the resolved URL
// is self-referential (same as base URL after stripping fragment).
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isSameSite reports whether host is base or one of its subdomains, ignoring
// a leading "www.".
func isSameSite(base, host string) bool {
	base = strings.TrimPrefix(strings.ToLower(base), "www.")
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return host == base || strings.HasSuffix(host, "."+base)
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}

func hasExtension(p string, exts []string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, want := range exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

var assetExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".css", ".js", ".zip", ".rar", ".mp3", ".mp4", ".avi", ".xls", ".xlsx", ".ppt", ".pptx",
}

func isAsset(p string) bool {
	return hasExtension(p, assetExtensions)
}
