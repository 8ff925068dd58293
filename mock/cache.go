package mock

import (
	"context"

	"github.com/fwojciec/docpipe"
)

var _ docpipe.ResultCache = (*ResultCache)(nil)

// ResultCache is a mock implementation of docpipe.ResultCache.
type ResultCache struct {
	LoadFn         func(ctx context.Context) (map[int64]*docpipe.CacheEntry, error)
	MergeAndSaveFn func(ctx context.Context, entries map[int64]*docpipe.CacheEntry) (int, error)
	InvalidateFn   func(ctx context.Context, ids []int64) (int, error)
}

func (c *ResultCache) Load(ctx context.Context) (map[int64]*docpipe.CacheEntry, error) {
	return c.LoadFn(ctx)
}

func (c *ResultCache) MergeAndSave(ctx context.Context, entries map[int64]*docpipe.CacheEntry) (int, error) {
	return c.MergeAndSaveFn(ctx, entries)
}

func (c *ResultCache) Invalidate(ctx context.Context, ids []int64) (int, error) {
	return c.InvalidateFn(ctx, ids)
}
