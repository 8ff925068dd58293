package bloom_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/docpipe/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("https://www.bkam.ma/pdf/a.pdf"))

	f.Add("https://www.bkam.ma/pdf/a.pdf")

	assert.True(t, f.Test("https://www.bkam.ma/pdf/a.pdf"))
	assert.False(t, f.Test("https://www.bkam.ma/pdf/b.pdf"))
}

func TestFilter_NormalizesURLs(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	f.Add("https://www.CESE.ma/avis.pdf#page=3")

	assert.True(t, f.Test("http://cese.ma/avis.pdf"))
	assert.False(t, f.Test("http://cese.ma/avis.pdf?v=2"))
}

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.TestAndAdd("rapport.pdf"))
	assert.True(t, f.TestAndAdd("rapport.pdf"))
	assert.True(t, f.Test("rapport.pdf"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)
	assert.Equal(t, uint(0), f.EstimatedCount())

	for i := range 3 {
		f.Add(fmt.Sprintf("https://www.oecd.org/doc%d.pdf", i))
	}

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_ConcurrentUse(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(10000, 0.01)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				f.Add(fmt.Sprintf("https://www.oecd.org/%d/%d.pdf", i, j))
			}
		}()
	}
	wg.Wait()

	assert.True(t, f.Test("https://www.oecd.org/7/99.pdf"))
}
