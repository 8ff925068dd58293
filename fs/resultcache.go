package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/fwojciec/docpipe"
)

// Ensure ResultCache implements docpipe.ResultCache at compile time.
var _ docpipe.ResultCache = (*ResultCache)(nil)

// ResultCache implements docpipe.ResultCache as a single JSON array file.
// Every write replaces the file atomically.
type ResultCache struct {
	path string

	// mu serializes load-merge-save cycles within one process.
	mu sync.Mutex
}

// NewResultCache creates a ResultCache backed by the file at path.
func NewResultCache(path string) *ResultCache {
	return &ResultCache{path: path}
}

// Path returns the cache file path.
func (c *ResultCache) Path() string {
	return c.path
}

// Load reads the cache file. A missing or empty file yields an empty map.
func (c *ResultCache) Load(ctx context.Context) (map[int64]*docpipe.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// MergeAndSave overlays entries on the stored cache and writes the union.
func (c *ResultCache) MergeAndSave(ctx context.Context, entries map[int64]*docpipe.CacheEntry) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.load()
	if err != nil {
		return 0, err
	}
	docpipe.MergeCacheEntries(existing, entries)

	if err := c.save(existing); err != nil {
		return 0, err
	}
	return len(existing), nil
}

// Invalidate removes entries for ids and rewrites the cache if any were
// present.
func (c *ResultCache) Invalidate(ctx context.Context, ids []int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.load()
	if err != nil {
		return 0, err
	}

	var removed int
	for _, id := range ids {
		if _, ok := existing[id]; ok {
			delete(existing, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	if err := c.save(existing); err != nil {
		return 0, err
	}
	return removed, nil
}

func (c *ResultCache) load() (map[int64]*docpipe.CacheEntry, error) {
	entries := make(map[int64]*docpipe.CacheEntry)

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result cache: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}

	entries, err = docpipe.DecodeCacheEntries(data)
	if err != nil {
		return nil, docpipe.Errorf(docpipe.ECORRUPT, "result cache %s: %s", c.path, docpipe.ErrorDetail(err))
	}
	return entries, nil
}

func (c *ResultCache) save(entries map[int64]*docpipe.CacheEntry) error {
	data, err := docpipe.EncodeCacheEntries(entries)
	if err != nil {
		return err
	}

	if err := WriteFileAtomic(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write result cache: %w", err)
	}
	return nil
}
