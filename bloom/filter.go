// Package bloom provides approximate set membership for download
// deduplication during scraping.
package bloom

import (
	"net/url"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter remembers which document URLs a scrape has already queued. It is
// safe for concurrent use by collector callbacks.
type Filter struct {
	mu sync.Mutex
	f  *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds a key to the filter.
func (f *Filter) Add(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.f.AddString(normalize(key))
}

// Test returns true if the key might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestString(normalize(key))
}

// TestAndAdd adds key and reports whether it might have been present.
func (f *Filter) TestAndAdd(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.TestAndAddString(normalize(key))
}

// EstimatedCount returns the approximate number of items in the filter.
func (f *Filter) EstimatedCount() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint(f.f.ApproximatedSize())
}

// normalize makes URLs that differ only in scheme, host case or a leading
// "www." compare equal. Keys that are not absolute URLs are used as is.
func normalize(key string) string {
	u, err := url.Parse(key)
	if err != nil || u.Host == "" {
		return key
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	return host + u.RequestURI()
}
