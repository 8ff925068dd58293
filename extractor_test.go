package docpipe_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorRegistry_ExtractText(t *testing.T) {
	t.Parallel()

	longText := strings.Repeat("Rapport sur l'économie. ", 5)

	t.Run("dispatches by extension case-insensitively", func(t *testing.T) {
		t.Parallel()

		var gotPath string
		var gotPages int
		registry := docpipe.NewExtractorRegistry()
		registry.Register(".pdf", &mock.TextExtractor{
			ExtractTextFn: func(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error) {
				gotPath, gotPages = path, maxPages
				return &docpipe.ExtractionResult{Text: longText, PageCount: 3}, nil
			},
		})

		res, err := registry.ExtractText(context.Background(), "/data/RAPPORT.PDF", 3)
		require.NoError(t, err)
		assert.Equal(t, longText, res.Text)
		assert.Equal(t, "/data/RAPPORT.PDF", gotPath)
		assert.Equal(t, 3, gotPages)
	})

	t.Run("returns EEMPTY for short text", func(t *testing.T) {
		t.Parallel()

		registry := docpipe.NewExtractorRegistry()
		registry.Register(".pdf", &mock.TextExtractor{
			ExtractTextFn: func(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error) {
				return &docpipe.ExtractionResult{Text: "   page 1   "}, nil
			},
		})

		_, err := registry.ExtractText(context.Background(), "a.pdf", 3)
		assert.Equal(t, docpipe.EEMPTY, docpipe.ErrorCode(err))
	})

	t.Run("returns ECORRUPT for unknown extension", func(t *testing.T) {
		t.Parallel()

		_, err := docpipe.NewExtractorRegistry().ExtractText(context.Background(), "a.xls", 3)
		assert.Equal(t, docpipe.ECORRUPT, docpipe.ErrorCode(err))
	})

	t.Run("passes through extractor errors", func(t *testing.T) {
		t.Parallel()

		registry := docpipe.NewExtractorRegistry()
		registry.Register(".docx", &mock.TextExtractor{
			ExtractTextFn: func(ctx context.Context, path string, maxPages int) (*docpipe.ExtractionResult, error) {
				return nil, docpipe.Errorf(docpipe.ENOTFOUND, "missing")
			},
		})

		_, err := registry.ExtractText(context.Background(), "a.docx", 0)
		assert.Equal(t, docpipe.ENOTFOUND, docpipe.ErrorCode(err))
	})
}
