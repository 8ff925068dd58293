package slog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fwojciec/docpipe"
)

// Ensure LoggingTextExtractor implements docpipe.TextExtractor.
var _ docpipe.TextExtractor = (*LoggingTextExtractor)(nil)

// LoggingTextExtractor wraps a TextExtractor with debug logging.
type LoggingTextExtractor struct {
	next   docpipe.TextExtractor
	logger *slog.Logger
}

// NewLoggingTextExtractor creates a new LoggingTextExtractor.
func NewLoggingTextExtractor(next docpipe.TextExtractor, logger *slog.Logger) *LoggingTextExtractor {
	return &LoggingTextExtractor{next: next, logger: logger}
}

// ExtractText delegates to the wrapped extractor and logs the operation.
func (e *LoggingTextExtractor) ExtractText(ctx context.Context, path string, maxPages int) (res *docpipe.ExtractionResult, err error) {
	defer func(begin time.Time) {
		var pages, chars int
		if res != nil {
			pages = res.PageCount
			chars = len(res.Text)
		}
		e.logger.Debug("extract text",
			"file", filepath.Base(path),
			"pages", pages,
			"chars", chars,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.ExtractText(ctx, path, maxPages)
}
