package reorganize

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/fwojciec/docpipe"
)

// Consistency describes how the document store and the result cache agree.
type Consistency struct {
	Documents    int
	Extracted    int
	Analyzed     int
	Failed       int
	Unattributed int
	CacheEntries int

	// AnalyzedNotCached lists analyzed documents without a cache entry.
	AnalyzedNotCached []int64

	// CachedNotAnalyzed lists cached documents not marked analyzed.
	CachedNotAnalyzed []int64

	// Orphaned lists cache entries without a document record.
	Orphaned []int64
}

// Consistent reports whether store and cache agree.
func (c *Consistency) Consistent() bool {
	return len(c.AnalyzedNotCached) == 0 && len(c.CachedNotAnalyzed) == 0 && len(c.Orphaned) == 0
}

// Check compares the store and the cache without modifying either.
func (r *Reorganizer) Check(ctx context.Context) (*Consistency, error) {
	docs, err := r.Documents.FindDocuments(ctx, docpipe.DocumentFilter{})
	if err != nil {
		return nil, err
	}
	entries, err := r.Cache.Load(ctx)
	if err != nil {
		return nil, err
	}

	c := &Consistency{Documents: len(docs), CacheEntries: len(entries)}
	known := make(map[int64]bool, len(docs))
	for _, doc := range docs {
		known[doc.ID] = true
		if doc.IsExtracted {
			c.Extracted++
		}
		if doc.ErrorMessage != nil {
			c.Failed++
		}
		if doc.SiteID == nil {
			c.Unattributed++
		}
		_, cached := entries[doc.ID]
		switch {
		case doc.IsAnalyzed:
			c.Analyzed++
			if !cached {
				c.AnalyzedNotCached = append(c.AnalyzedNotCached, doc.ID)
			}
		case cached:
			c.CachedNotAnalyzed = append(c.CachedNotAnalyzed, doc.ID)
		}
	}
	for id := range entries {
		if !known[id] {
			c.Orphaned = append(c.Orphaned, id)
		}
	}
	slices.Sort(c.Orphaned)
	return c, nil
}

// Report prints the consistency counts.
func (c *Consistency) Report(w io.Writer) {
	fmt.Fprintf(w, "Documents: %d\n", c.Documents)
	fmt.Fprintf(w, "Extracted: %d\n", c.Extracted)
	fmt.Fprintf(w, "Analyzed: %d\n", c.Analyzed)
	fmt.Fprintf(w, "Failed: %d\n", c.Failed)
	fmt.Fprintf(w, "Unattributed: %d\n", c.Unattributed)
	fmt.Fprintf(w, "Cache entries: %d\n", c.CacheEntries)
	fmt.Fprintf(w, "Analyzed but not cached: %d\n", len(c.AnalyzedNotCached))
	fmt.Fprintf(w, "Cached but not analyzed: %d\n", len(c.CachedNotAnalyzed))
	fmt.Fprintf(w, "Orphaned cache entries: %d\n", len(c.Orphaned))
	if c.Consistent() {
		fmt.Fprintln(w, "Store and cache are consistent")
	} else {
		fmt.Fprintln(w, "Run reorganize to reconcile store and cache")
	}
}
