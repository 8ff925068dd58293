package docpipe

import (
	"path/filepath"
	"strings"
)

// DefaultSiteSuffixes are the top-level-domain suffixes accepted by the
// resolver's first-segment fallback.
var DefaultSiteSuffixes = []string{".ma", ".org", ".com", ".gov"}

// SiteResolver maps file paths to canonical site names.
type SiteResolver struct {
	// Root is stripped from paths before the first-segment fallback.
	Root string

	fragments []siteFragment
	suffixes  []string
}

type siteFragment struct {
	site     string
	fragment string
}

// NewSiteResolver builds a resolver from site definitions. Fragments are
// matched in definition order. A relative root is made absolute.
func NewSiteResolver(root string, defs []SiteDefinition) *SiteResolver {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	r := &SiteResolver{
		Root:     normalizePath(root),
		suffixes: DefaultSiteSuffixes,
	}
	for _, def := range defs {
		for _, f := range def.Fragments {
			f = strings.Trim(normalizePath(f), "/")
			if f == "" {
				continue
			}
			r.fragments = append(r.fragments, siteFragment{site: def.Name, fragment: f})
			// Converted documents live next to the downloads they came from.
			if wd := filepath.ToSlash(WordDirectory(f)); !strings.HasPrefix(wd, f+"/") {
				r.fragments = append(r.fragments, siteFragment{site: def.Name, fragment: wd})
			}
		}
	}
	return r
}

// Resolve returns the site name for path. The second return value is false
// when neither a registered fragment nor the fallback matches.
func (r *SiteResolver) Resolve(path string) (string, bool) {
	p := normalizePath(path)

	for _, f := range r.fragments {
		if strings.Contains(p, f.fragment) {
			return f.site, true
		}
	}

	rel := p
	if r.Root != "" && r.Root != "." {
		rel = strings.TrimPrefix(rel, strings.TrimSuffix(r.Root, "/")+"/")
	}
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.TrimLeft(rel, "/")

	first, _, found := strings.Cut(rel, "/")
	if !found || !strings.Contains(first, ".") {
		return "", false
	}
	for _, suffix := range r.suffixes {
		if strings.HasSuffix(first, suffix) {
			return first, true
		}
	}
	return "", false
}

// normalizePath treats both separators as equivalent and cleans the result.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(p))
}
