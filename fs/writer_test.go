package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/docpipe/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "simple path",
			url:  "https://example.com/publications/rapports",
			want: "publications/rapports.html",
		},
		{
			name: "trailing slash becomes index",
			url:  "https://example.com/publications/",
			want: "publications/index.html",
		},
		{
			name: "root path becomes index",
			url:  "https://example.com/",
			want: "index.html",
		},
		{
			name: "keeps existing extension",
			url:  "https://example.com/fr/page.html",
			want: "fr/page.html",
		},
		{
			name: "ignores query string",
			url:  "https://example.com/docs/api?version=2",
			want: "docs/api.html",
		},
		{
			name:    "invalid URL",
			url:     "://bad",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url, ".html")

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMarkdown(t *testing.T) {
	t.Parallel()

	converted := time.Date(2025, 1, 27, 10, 0, 0, 0, time.UTC)
	got := fs.FormatMarkdown("https://www.cese.ma/avis", "Avis du CESE", converted, "# Avis\n\nTexte.")

	assert.Equal(t, "---\nsource: https://www.cese.ma/avis\ntitle: Avis du CESE\nconverted: 2025-01-27\n---\n\n# Avis\n\nTexte.", got)
	assert.Equal(t, "# Avis\n\nTexte.", fs.StripFrontmatter(got))
}

func TestStripFrontmatter(t *testing.T) {
	t.Parallel()

	t.Run("leaves content without frontmatter", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "plain text", fs.StripFrontmatter("plain text"))
	})

	t.Run("leaves unterminated frontmatter", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "---\ntitle: x\n", fs.StripFrontmatter("---\ntitle: x\n"))
	})
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories and writes content", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "a", "b", "out.json")
		require.NoError(t, fs.WriteFileAtomic(path, []byte("[]"), 0644))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	})

	t.Run("replaces existing file and leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "out.json")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

		require.NoError(t, fs.WriteFileAtomic(path, []byte("new"), 0644))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
