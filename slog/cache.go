package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docpipe"
)

// Ensure LoggingResultCache implements docpipe.ResultCache.
var _ docpipe.ResultCache = (*LoggingResultCache)(nil)

// LoggingResultCache wraps a ResultCache with debug logging.
type LoggingResultCache struct {
	next   docpipe.ResultCache
	logger *slog.Logger
}

// NewLoggingResultCache creates a new LoggingResultCache.
func NewLoggingResultCache(next docpipe.ResultCache, logger *slog.Logger) *LoggingResultCache {
	return &LoggingResultCache{next: next, logger: logger}
}

// Load delegates to the wrapped cache and logs the number of entries.
func (c *LoggingResultCache) Load(ctx context.Context) (entries map[int64]*docpipe.CacheEntry, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache load",
			"count", len(entries),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Load(ctx)
}

// MergeAndSave delegates to the wrapped cache and logs the merge.
func (c *LoggingResultCache) MergeAndSave(ctx context.Context, entries map[int64]*docpipe.CacheEntry) (n int, err error) {
	defer func(begin time.Time) {
		c.logger.Info("cache save",
			"merged", len(entries),
			"total", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.MergeAndSave(ctx, entries)
}

// Invalidate delegates to the wrapped cache and logs the removal.
func (c *LoggingResultCache) Invalidate(ctx context.Context, ids []int64) (n int, err error) {
	defer func(begin time.Time) {
		c.logger.Info("cache invalidate",
			"requested", len(ids),
			"removed", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Invalidate(ctx, ids)
}
