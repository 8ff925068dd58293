package mock

import (
	"context"

	"github.com/fwojciec/docpipe"
)

var _ docpipe.TextExtractor = (*TextExtractor)(nil)

// TextExtractor is a mock implementation of docpipe.TextExtractor.
type TextExtractor struct {
	ExtractTextFn func(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error)
}

func (e *TextExtractor) ExtractText(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error) {
	return e.ExtractTextFn(ctx, path, maxPages)
}

var _ docpipe.HTMLExtractor = (*HTMLExtractor)(nil)

// HTMLExtractor is a mock implementation of docpipe.HTMLExtractor.
type HTMLExtractor struct {
	ExtractFn func(html string) (*docpipe.HTMLContent, error)
}

func (e *HTMLExtractor) Extract(html string) (*docpipe.HTMLContent, error) {
	return e.ExtractFn(html)
}

var _ docpipe.PageReader = (*PageReader)(nil)

// PageReader is a mock implementation of docpipe.PageReader.
type PageReader struct {
	ReadPagesFn func(ctx context.Context, path string) ([]string, error)
}

func (r *PageReader) ReadPages(ctx context.Context, path string) ([]string, error) {
	return r.ReadPagesFn(ctx, path)
}
