package docpipe_test

import (
	"testing"

	"github.com/fwojciec/docpipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCacheEntries(t *testing.T) {
	t.Parallel()

	t.Run("new values win and keys set the ID", func(t *testing.T) {
		t.Parallel()

		existing := map[int64]*docpipe.CacheEntry{
			1: {ID: 1, Title: "ancien"},
			2: {ID: 2, Title: "garde"},
		}
		fresh := map[int64]*docpipe.CacheEntry{
			1: {Title: "nouveau"},
			3: {Title: "ajout"},
			4: nil,
		}

		docpipe.MergeCacheEntries(existing, fresh)

		require.Len(t, existing, 3)
		assert.Equal(t, "nouveau", existing[1].Title)
		assert.Equal(t, int64(1), existing[1].ID)
		assert.Equal(t, "garde", existing[2].Title)
		assert.Equal(t, int64(3), existing[3].ID)
	})

	t.Run("leaves caller entries untouched", func(t *testing.T) {
		t.Parallel()

		entry := &docpipe.CacheEntry{ID: 99, Title: "rapport"}
		existing := map[int64]*docpipe.CacheEntry{}

		docpipe.MergeCacheEntries(existing, map[int64]*docpipe.CacheEntry{7: entry})

		assert.Equal(t, int64(99), entry.ID)
		assert.Equal(t, int64(7), existing[7].ID)
		assert.NotSame(t, entry, existing[7])
	})
}
