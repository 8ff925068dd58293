// Package pdf extracts text from PDF documents.
package pdf

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/fwojciec/docpipe"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Ensure Extractor implements docpipe.TextExtractor and docpipe.PageReader at compile time.
var (
	_ docpipe.TextExtractor = (*Extractor)(nil)
	_ docpipe.PageReader    = (*Extractor)(nil)
)

// Extractor reads the text layer of the first pages of a PDF.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the plain text of at most maxPages pages. A
// non-positive maxPages reads every page.
func (e *Extractor) ExtractText(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error) {
	doc, err := e.read(ctx, path, maxPages)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, text := range doc.pages {
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	return &docpipe.ExtractionResult{
		Text:      sb.String(),
		PageCount: doc.pageCount,
		Size:      doc.size,
	}, nil
}

// ReadPages returns the text of every page, one entry per page.
func (e *Extractor) ReadPages(ctx context.Context, path string) ([]string, error) {
	doc, err := e.read(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	return doc.pages, nil
}

type document struct {
	pages     []string
	pageCount int
	size      int64
}

func (e *Extractor) read(ctx context.Context, path string, maxPages int) (_ *document, err error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, docpipe.Errorf(docpipe.ENOTFOUND, "file not found: %s", path)
	} else if err != nil {
		return nil, err
	}

	// The text layer parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = docpipe.Errorf(docpipe.ECORRUPT, "unreadable pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "unreadable pdf %s: %s", path, err)
	}
	defer f.Close()

	doc := &document{pageCount: countPages(path, r), size: info.Size()}
	limit := doc.pageCount
	if maxPages > 0 && maxPages < limit {
		limit = maxPages
	}

	for i := 1; i <= limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			doc.pages = append(doc.pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, docpipe.Errorf(docpipe.ECORRUPT, "read page %d of %s: %s", i, path, err)
		}
		doc.pages = append(doc.pages, text)
	}
	return doc, nil
}

// countPages prefers the page tree as validated by pdfcpu and falls back to
// the text parser's own count.
func countPages(path string, r *pdf.Reader) int {
	if n, err := api.PageCountFile(path); err == nil && n > 0 {
		return n
	}
	return r.NumPage()
}
