// Package slog provides logging decorators for docpipe services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docpipe"
)

// Ensure LoggingClassifier implements docpipe.Classifier.
var _ docpipe.Classifier = (*LoggingClassifier)(nil)

// LoggingClassifier wraps a Classifier with logging of every request.
type LoggingClassifier struct {
	next   docpipe.Classifier
	logger *slog.Logger
}

// NewLoggingClassifier creates a new LoggingClassifier.
func NewLoggingClassifier(next docpipe.Classifier, logger *slog.Logger) *LoggingClassifier {
	return &LoggingClassifier{next: next, logger: logger}
}

// Classify delegates to the wrapped classifier and logs the outcome.
func (c *LoggingClassifier) Classify(ctx context.Context, text string) (res *docpipe.Classification, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"chars", len([]rune(text)),
			"duration", time.Since(begin),
		}
		if res != nil {
			attrs = append(attrs,
				"language", res.Language,
				"theme", res.Theme,
				"relevant", res.Relevant,
				"sentinel", res.IsError(),
			)
		}
		if err != nil {
			c.logger.Warn("classify", append(attrs, "err", err)...)
			return
		}
		c.logger.Debug("classify", attrs...)
	}(time.Now())
	return c.next.Classify(ctx, text)
}
