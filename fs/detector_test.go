package fs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/docpipe/fs"
	"github.com/fwojciec/docpipe/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func knownFilenames(names ...string) *mock.DocumentService {
	return &mock.DocumentService{
		FilenamesFn: func(ctx context.Context) (map[string]struct{}, error) {
			set := make(map[string]struct{})
			for _, n := range names {
				set[n] = struct{}{}
			}
			return set, nil
		},
	}
}

func TestChangeDetector_FilesNeedingIngestion(t *testing.T) {
	t.Parallel()

	t.Run("returns files unknown to the store", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "pdf_downloads", "a.pdf"), "a")
		writeFile(t, filepath.Join(dir, "pdf_downloads", "Discours", "b.PDF"), "b")
		writeFile(t, filepath.Join(dir, "pdf_downloads", "notes.txt"), "c")

		detector := fs.NewChangeDetector(knownFilenames("a.pdf"), []string{".pdf"})

		delta, err := detector.FilesNeedingIngestion(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"b.PDF": {}}, delta)
	})

	t.Run("filenames known under another path are not new", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "moved", "a.pdf"), "a")

		detector := fs.NewChangeDetector(knownFilenames("a.pdf"), []string{".pdf"})

		delta, err := detector.FilesNeedingIngestion(context.Background(), dir)
		require.NoError(t, err)
		assert.Empty(t, delta)
	})

	t.Run("empty directory yields empty set without querying the store", func(t *testing.T) {
		t.Parallel()

		detector := fs.NewChangeDetector(&mock.DocumentService{}, []string{".pdf"})

		delta, err := detector.FilesNeedingIngestion(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, delta)
	})

	t.Run("missing directory yields empty set", func(t *testing.T) {
		t.Parallel()

		detector := fs.NewChangeDetector(&mock.DocumentService{}, []string{".pdf"})

		delta, err := detector.FilesNeedingIngestion(context.Background(), filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, delta)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.pdf"), "a")
		docs := &mock.DocumentService{
			FilenamesFn: func(ctx context.Context) (map[string]struct{}, error) {
				return nil, errors.New("database is locked")
			},
		}

		_, err := fs.NewChangeDetector(docs, []string{".pdf"}).FilesNeedingIngestion(context.Background(), dir)
		require.Error(t, err)
	})
}

func TestWalkFiles(t *testing.T) {
	t.Parallel()

	t.Run("skips temporary files and reports sizes", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.docx"), "12345")
		writeFile(t, filepath.Join(dir, ".a.docx.123.tmp"), "x")

		files, err := fs.WalkFiles(context.Background(), dir, nil)
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "a.docx", files[0].Name)
		assert.Equal(t, int64(5), files[0].Size)
	})

	t.Run("stops on canceled context", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "a.pdf"), "a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fs.WalkFiles(ctx, dir, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
