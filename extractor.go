package docpipe

import (
	"context"
	"path/filepath"
	"strings"
)

// ExtractionResult holds the text extracted from a source file.
type ExtractionResult struct {
	Text      string
	PageCount int
	Size      int64
}

// TextExtractor extracts plain text from a document on disk.
type TextExtractor interface {
	// ExtractText reads at most maxPages pages from the file at path.
	// A maxPages of zero reads the whole document. Returns ENOTFOUND when the
	// file is absent, ECORRUPT when it cannot be parsed and EEMPTY when it
	// holds no usable text.
	ExtractText(ctx context.Context, path string, maxPages int) (*ExtractionResult, error)
}

// PageReader reads the text of a document one page at a time.
type PageReader interface {
	// ReadPages returns one entry per page, in order.
	ReadPages(ctx context.Context, path string) ([]string, error)
}

// DefaultMinTextLength is the minimum trimmed text length accepted as content.
const DefaultMinTextLength = 50

// Ensure ExtractorRegistry implements TextExtractor at compile time.
var _ TextExtractor = (*ExtractorRegistry)(nil)

// ExtractorRegistry dispatches extraction by file extension.
type ExtractorRegistry struct {
	// MinTextLength is the minimum trimmed length of usable text.
	MinTextLength int

	extractors map[string]TextExtractor
}

// NewExtractorRegistry creates an empty registry.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		MinTextLength: DefaultMinTextLength,
		extractors:    make(map[string]TextExtractor),
	}
}

// Register associates an extractor with a file extension such as ".pdf".
func (r *ExtractorRegistry) Register(ext string, e TextExtractor) {
	r.extractors[strings.ToLower(ext)] = e
}

// Extensions returns the registered extensions.
func (r *ExtractorRegistry) Extensions() []string {
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	return exts
}

// ExtractText extracts text using the extractor registered for the file's
// extension and rejects results shorter than MinTextLength.
func (r *ExtractorRegistry) ExtractText(ctx context.Context, path string, maxPages int) (*ExtractionResult, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.extractors[ext]
	if !ok {
		return nil, Errorf(ECORRUPT, "no extractor for %q files", ext)
	}

	res, err := e.ExtractText(ctx, path, maxPages)
	if err != nil {
		return nil, err
	}
	if len([]rune(strings.TrimSpace(res.Text))) < r.MinTextLength {
		return nil, Errorf(EEMPTY, "%s: extracted text shorter than %d characters", filepath.Base(path), r.MinTextLength)
	}
	return res, nil
}
