// Package convert implements the convert stage. Downloaded PDFs are rewritten
// as Word documents and saved HTML pages are reduced to their main content
// and rewritten as Markdown. Both outputs are picked up by ingest.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/fs"
)

// MarkdownDirName is the directory under a download directory that holds
// converted pages.
const MarkdownDirName = "markdown"

// Result counts the outcome of one conversion pass.
type Result struct {
	Converted int
	UpToDate  int
	Skipped   int
	Failed    int
	Errors    []string
}

// SourceFunc returns the original URL of a saved page, or "" when unknown.
type SourceFunc func(html string) string

// pageConverter is implemented by converters that can resolve relative links.
type pageConverter interface {
	ConvertPage(html, pageURL string) (string, error)
}

// Converter converts saved HTML pages to Markdown.
type Converter struct {
	Extractor docpipe.HTMLExtractor
	Markdown  docpipe.Converter

	// Source finds the page URL recorded in the HTML. Optional.
	Source SourceFunc

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewConverter creates a new Converter.
func NewConverter(extractor docpipe.HTMLExtractor, markdown docpipe.Converter) *Converter {
	return &Converter{
		Extractor: extractor,
		Markdown:  markdown,
		Now:       time.Now,
	}
}

// ConvertDir converts every .html page under dir that has no up-to-date
// Markdown file in the markdown directory of dir. Per-page failures are
// counted and do not stop the pass.
func (c *Converter) ConvertDir(ctx context.Context, dir string) (*Result, error) {
	pages, err := fs.WalkFiles(ctx, dir, []string{".html", ".htm"})
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		target := MarkdownPath(dir, page.Path)
		if upToDate(page.Path, target) {
			res.UpToDate++
			continue
		}

		if err := c.ConvertFile(page.Path, target, relativeSource(dir, page.Path)); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, page.Path+": "+docpipe.ErrorDetail(err))
			continue
		}
		res.Converted++
	}
	return res, nil
}

// ConvertFile converts the page at src and writes Markdown to dst.
// fallbackSource is recorded when the page carries no URL of its own.
func (c *Converter) ConvertFile(src, dst, fallbackSource string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return docpipe.Errorf(docpipe.ENOTFOUND, "read %s: %s", src, err)
	}
	html := string(raw)

	content, err := c.Extractor.Extract(html)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content.ContentHTML) == "" {
		return docpipe.Errorf(docpipe.EEMPTY, "no main content in %s", filepath.Base(src))
	}

	source := fallbackSource
	if c.Source != nil {
		if u := c.Source(html); u != "" {
			source = u
		}
	}

	var body string
	if pc, ok := c.Markdown.(pageConverter); ok && strings.HasPrefix(source, "http") {
		body, err = pc.ConvertPage(content.ContentHTML, source)
	} else {
		body, err = c.Markdown.Convert(content.ContentHTML)
	}
	if err != nil {
		return err
	}

	title := content.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	doc := fs.FormatMarkdown(source, title, now(), body)
	return fs.WriteFileAtomic(dst, []byte(doc), 0o644)
}

// MarkdownPath returns where the Markdown of the page at htmlPath under dir
// is written. Names are flattened from the page's relative path and carry a
// hash of its location, so pages named alike on different sites never share
// a file name.
func MarkdownPath(dir, htmlPath string) string {
	rel := relativeSource(dir, htmlPath)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.TrimPrefix(rel, "pages/")

	var parts []string
	for _, p := range strings.Split(rel, "/") {
		if p = slug(p); p != "" {
			parts = append(parts, p)
		}
	}
	name := strings.Join(parts, "-")
	if r := []rune(name); len(r) > 120 {
		name = string(r[:120])
	}
	if name == "" {
		name = "page"
	}

	loc := htmlPath
	if abs, err := filepath.Abs(htmlPath); err == nil {
		loc = abs
	}
	sum := xxhash.Sum64String(filepath.ToSlash(loc))
	return filepath.Join(dir, MarkdownDirName, fmt.Sprintf("%s-%08x.md", name, uint32(sum)))
}

func slug(s string) string {
	return strings.Trim(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, s), "-.")
}

// upToDate reports whether dst exists and is not older than src.
func upToDate(src, dst string) bool {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	return !dstInfo.ModTime().Before(srcInfo.ModTime())
}

func relativeSource(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
