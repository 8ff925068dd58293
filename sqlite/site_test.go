package sqlite_test

import (
	"context"
	"testing"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteService_FindOrCreateSite(t *testing.T) {
	t.Parallel()

	t.Run("creates site once", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSiteService(db)
		ctx := context.Background()

		first, err := svc.FindOrCreateSite(ctx, "bkam.ma", "https://www.bkam.ma")
		require.NoError(t, err)
		second, err := svc.FindOrCreateSite(ctx, "bkam.ma", "https://other.example")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "https://www.bkam.ma", second.BaseURL)

		sites, err := svc.FindSites(ctx, docpipe.SiteFilter{})
		require.NoError(t, err)
		assert.Len(t, sites, 1)
	})

	t.Run("returns EINVALID for empty name", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSiteService(db)

		_, err := svc.FindOrCreateSite(context.Background(), "", "")
		assert.Equal(t, docpipe.EINVALID, docpipe.ErrorCode(err))
	})
}

func TestSiteService_FindSiteByID(t *testing.T) {
	t.Parallel()

	t.Run("returns site when found", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSiteService(db)
		ctx := context.Background()
		created, err := svc.FindOrCreateSite(ctx, "cese.ma", "https://www.cese.ma")
		require.NoError(t, err)

		found, err := svc.FindSiteByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, found)
	})

	t.Run("returns ENOTFOUND when not found", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewSiteService(db)

		_, err := svc.FindSiteByID(context.Background(), 12)
		assert.Equal(t, docpipe.ENOTFOUND, docpipe.ErrorCode(err))
	})
}

func TestSiteService_FindSites(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := sqlite.NewSiteService(db)
	ctx := context.Background()
	for _, name := range []string{"oecd.org", "bkam.ma", "cese.ma"} {
		_, err := svc.FindOrCreateSite(ctx, name, docpipe.DefaultBaseURL(name))
		require.NoError(t, err)
	}

	sites, err := svc.FindSites(ctx, docpipe.SiteFilter{})
	require.NoError(t, err)
	require.Len(t, sites, 3)
	assert.Equal(t, "bkam.ma", sites[0].Name)

	name := "oecd.org"
	byName, err := svc.FindSites(ctx, docpipe.SiteFilter{Name: &name})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "https://www.oecd.org", byName[0].BaseURL)
}
