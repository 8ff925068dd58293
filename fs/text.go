package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"unicode/utf8"

	"github.com/fwojciec/docpipe"
)

// Ensure TextExtractor implements docpipe.TextExtractor at compile time.
var _ docpipe.TextExtractor = (*TextExtractor)(nil)

// TextExtractor reads plain text and Markdown files. Frontmatter written by
// the convert stage is dropped. Text files have no pages, so maxPages is
// ignored and the page count is always 1.
type TextExtractor struct{}

// NewTextExtractor creates a new TextExtractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractText returns the file content.
func (e *TextExtractor) ExtractText(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, docpipe.Errorf(docpipe.ENOTFOUND, "file %s not found", path)
	}
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "read %s: %v", path, err)
	}
	if !utf8.Valid(data) {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "%s is not valid UTF-8 text", path)
	}

	return &docpipe.ExtractionResult{
		Text:      StripFrontmatter(string(data)),
		PageCount: 1,
		Size:      int64(len(data)),
	}, nil
}
