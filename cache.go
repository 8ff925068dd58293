package docpipe

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// CacheEntry is the last computed classification for a document, kept in
// the result cache independently of the document store.
type CacheEntry struct {
	ID           int64          `json:"id"`
	Title        string         `json:"title"`
	FilePath     string         `json:"file_path"`
	URL          string         `json:"url"`
	SiteName     string         `json:"site_web"`
	DownloadedAt *time.Time     `json:"downloaded_at"`
	Analysis     Classification `json:"analysis"`
	TextLength   int            `json:"text_length"`
	AnalyzedAt   time.Time      `json:"analyzed_at"`
}

// ResultCache represents a keyed store of classification results that is
// merged across runs.
type ResultCache interface {
	// Load returns all entries keyed by document ID. A cache that does not
	// exist yet yields an empty map.
	Load(ctx context.Context) (map[int64]*CacheEntry, error)

	// MergeAndSave overlays entries on the persisted cache and writes the
	// union back atomically. New values win on key collision. Returns the
	// number of entries written.
	MergeAndSave(ctx context.Context, entries map[int64]*CacheEntry) (int, error)

	// Invalidate removes entries for the given IDs and returns how many were
	// present.
	Invalidate(ctx context.Context, ids []int64) (int, error)
}

// CacheKeys returns the set of IDs in entries.
func CacheKeys(entries map[int64]*CacheEntry) map[int64]struct{} {
	keys := make(map[int64]struct{}, len(entries))
	for id := range entries {
		keys[id] = struct{}{}
	}
	return keys
}

// NewCacheEntry builds the cache entry for an analyzed document. site may be
// nil for unattributed documents.
func NewCacheEntry(doc *Document, site *Site, analysis Classification, analyzedAt time.Time) *CacheEntry {
	e := &CacheEntry{
		ID:         doc.ID,
		Title:      strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename)),
		FilePath:   doc.Path,
		Analysis:   analysis,
		TextLength: doc.TextLength,
		AnalyzedAt: analyzedAt.UTC(),
	}
	if !doc.CreatedAt.IsZero() {
		downloaded := doc.CreatedAt.UTC()
		e.DownloadedAt = &downloaded
	}
	if site != nil {
		e.SiteName = site.Name
		e.URL = site.BaseURL
	}
	return e
}

// DecodeCacheEntries parses the persisted cache format, a JSON array of
// entries. Empty input yields an empty map.
func DecodeCacheEntries(data []byte) (map[int64]*CacheEntry, error) {
	entries := make(map[int64]*CacheEntry)
	if len(data) == 0 {
		return entries, nil
	}

	var list []*CacheEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, Errorf(ECORRUPT, "result cache is not a JSON array: %v", err)
	}
	for _, entry := range list {
		if entry == nil {
			continue
		}
		entries[entry.ID] = entry
	}
	return entries, nil
}

// EncodeCacheEntries renders entries as an indented JSON array sorted by ID.
func EncodeCacheEntries(entries map[int64]*CacheEntry) ([]byte, error) {
	list := make([]*CacheEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}
	slices.SortFunc(list, func(a, b *CacheEntry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result cache: %w", err)
	}
	return data, nil
}

// MergeCacheEntries overlays entries on existing. New values win.
func MergeCacheEntries(existing, entries map[int64]*CacheEntry) {
	for id, entry := range entries {
		if entry == nil {
			continue
		}
		e := *entry
		e.ID = id
		existing[id] = &e
	}
}
