package convert_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/convert"
	"github.com/fwojciec/docpipe/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConverter() *convert.Converter {
	c := convert.NewConverter(
		&mock.HTMLExtractor{
			ExtractFn: func(html string) (*docpipe.HTMLContent, error) {
				if strings.Contains(html, "empty") {
					return &docpipe.HTMLContent{}, nil
				}
				return &docpipe.HTMLContent{Title: "Avis du Conseil", ContentHTML: "<p>" + html + "</p>"}, nil
			},
		},
		&mock.Converter{
			ConvertFn: func(html string) (string, error) {
				return "converted: " + html, nil
			},
		},
	)
	c.Now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return c
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConverter_ConvertDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := filepath.Join(dir, "cese.ma", "pages", "avis.html")
	writeFile(t, page, "body")

	res, err := newConverter().ConvertDir(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Converted)

	md, err := os.ReadFile(convert.MarkdownPath(dir, page))
	require.NoError(t, err)
	assert.Equal(t, "---\nsource: cese.ma/pages/avis.html\ntitle: Avis du Conseil\nconverted: 2024-03-01\n---\n\nconverted: <p>body</p>", string(md))
}

func TestConverter_ConvertDir_IsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "one")
	writeFile(t, filepath.Join(dir, "b.html"), "two")
	c := newConverter()

	first, err := c.ConvertDir(context.Background(), dir)
	require.NoError(t, err)
	second, err := c.ConvertDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Converted)
	assert.Equal(t, 0, second.Converted)
	assert.Equal(t, 2, second.UpToDate)
}

func TestConverter_ConvertDir_ReconvertsStalePages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	page := filepath.Join(dir, "a.html")
	writeFile(t, page, "new")
	target := convert.MarkdownPath(dir, page)
	writeFile(t, target, "old")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(target, past, past))

	res, err := newConverter().ConvertDir(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Converted)
}

func TestConverter_ConvertDir_CountsFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.html"), "content")
	writeFile(t, filepath.Join(dir, "bad.html"), "empty")

	res, err := newConverter().ConvertDir(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Converted)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "bad.html")
	assert.NoFileExists(t, convert.MarkdownPath(dir, filepath.Join(dir, "bad.html")))
}

func TestConverter_ConvertDir_UsesRecordedSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "p.html"), "content")
	c := newConverter()
	c.Source = func(string) string { return "https://www.cese.ma/avis" }

	_, err := c.ConvertDir(context.Background(), dir)

	require.NoError(t, err)
	md, err := os.ReadFile(convert.MarkdownPath(dir, filepath.Join(dir, "p.html")))
	require.NoError(t, err)
	assert.Contains(t, string(md), "source: https://www.cese.ma/avis\n")
}

func TestConverter_ConvertDir_MissingDir(t *testing.T) {
	t.Parallel()

	res, err := newConverter().ConvertDir(context.Background(), filepath.Join(t.TempDir(), "absent"))

	require.NoError(t, err)
	assert.Zero(t, res.Converted)
}

func TestMarkdownPath(t *testing.T) {
	t.Parallel()

	t.Run("flattens the page path into the markdown directory", func(t *testing.T) {
		t.Parallel()

		got := convert.MarkdownPath("/data/cese.ma", "/data/cese.ma/pages/fr/Publications/index.html")

		assert.Equal(t, filepath.Join("/data/cese.ma", convert.MarkdownDirName), filepath.Dir(got))
		assert.True(t, strings.HasPrefix(filepath.Base(got), "fr-publications-index-"), got)
		assert.Equal(t, ".md", filepath.Ext(got))
	})

	t.Run("same page name on two sites gets distinct files", func(t *testing.T) {
		t.Parallel()

		a := convert.MarkdownPath("/data/cese.ma", "/data/cese.ma/pages/index.html")
		b := convert.MarkdownPath("/data/oecd.org", "/data/oecd.org/pages/index.html")

		assert.NotEqual(t, filepath.Base(a), filepath.Base(b))
	})

	t.Run("is stable across calls", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			convert.MarkdownPath("/data/cese.ma", "/data/cese.ma/pages/avis.htm"),
			convert.MarkdownPath("/data/cese.ma", "/data/cese.ma/pages/avis.htm"))
	})
}
