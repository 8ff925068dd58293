package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/docpipe"
	main "github.com/fwojciec/docpipe/cmd/docpipe"
	"github.com/fwojciec/docpipe/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocsCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists documents with their status", func(t *testing.T) {
		t.Parallel()

		msg := "extract: corrupt file"
		docs := &mock.DocumentService{
			FindDocumentsFn: func(_ context.Context, filter docpipe.DocumentFilter) ([]*docpipe.Document, error) {
				return []*docpipe.Document{
					{ID: 1, Filename: "rapport.pdf", IsExtracted: true, IsAnalyzed: true, Language: "Français", Theme: "Finance", Confidence: "Élevé"},
					{ID: 2, Filename: "broken.pdf", ErrorMessage: &msg},
				}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:       context.Background(),
			Stdout:    stdout,
			Stderr:    &bytes.Buffer{},
			Documents: docs,
		}

		err := (&main.DocsCmd{Limit: 50}).Run(deps)

		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "analyzed  rapport.pdf")
		assert.Contains(t, out, "Français / Finance / Élevé")
		assert.Contains(t, out, "failed    broken.pdf")
		assert.Contains(t, out, "error: extract: corrupt file")
	})

	t.Run("passes filters to the store", func(t *testing.T) {
		t.Parallel()

		var got docpipe.DocumentFilter
		docs := &mock.DocumentService{
			FindDocumentsFn: func(_ context.Context, filter docpipe.DocumentFilter) ([]*docpipe.Document, error) {
				got = filter
				return nil, nil
			},
		}
		sites := &mock.SiteService{
			FindSitesFn: func(_ context.Context, _ docpipe.SiteFilter) ([]*docpipe.Site, error) {
				return []*docpipe.Site{{ID: 7, Name: "oecd.org"}}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:       context.Background(),
			Stdout:    stdout,
			Stderr:    &bytes.Buffer{},
			Documents: docs,
			Sites:     sites,
		}

		err := (&main.DocsCmd{Site: "oecd.org", Pending: true, Failed: true, Limit: 10}).Run(deps)

		require.NoError(t, err)
		require.NotNil(t, got.SiteID)
		assert.Equal(t, int64(7), *got.SiteID)
		require.NotNil(t, got.IsAnalyzed)
		assert.False(t, *got.IsAnalyzed)
		assert.True(t, got.Failed)
		assert.Equal(t, 10, got.Limit)
		assert.Contains(t, stdout.String(), "No documents found")
	})
}
