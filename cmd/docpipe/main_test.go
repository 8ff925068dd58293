package main_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	main "github.com/fwojciec/docpipe/cmd/docpipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWorkspace creates a data directory with one site and returns the
// path of a config file pointing at it.
func writeWorkspace(t *testing.T, files ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range files {
		path := filepath.Join(dir, "data", "cese.ma", "pdf_downloads", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	}

	cfg := fmt.Sprintf(`
data_dir: %s
store_path: %s
cache:
  path: %s
sites:
  - name: cese.ma
    dirs: [cese.ma/pdf_downloads]
`, filepath.Join(dir, "data"), filepath.Join(dir, "db.sqlite3"), filepath.Join(dir, "cache", "results.json"))

	path := filepath.Join(dir, "docpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	m := main.NewMain()
	err := m.Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("no command prints help and fails", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
		assert.Contains(t, stdout, "Usage: docpipe")
	})

	t.Run("help succeeds", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, "--help")

		require.NoError(t, err)
		assert.Contains(t, stdout, "analyze")
		assert.Contains(t, stdout, "reorganize")
	})

	t.Run("invalid config is fatal", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "docpipe.yaml")
		require.NoError(t, os.WriteFile(path, []byte("analysis:\n  concurrency: 0\n"), 0o644))

		_, _, err := run(t, "--config", path, "ingest")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})

	t.Run("ingest is idempotent across runs", func(t *testing.T) {
		t.Parallel()

		cfg := writeWorkspace(t, "doc1.pdf", "doc2.pdf")

		stdout, _, err := run(t, "--config", cfg, "ingest")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Created: 2")

		stdout, _, err = run(t, "--config", cfg, "ingest")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Created: 0")
		assert.Contains(t, stdout, "Already existing: 2")

		stdout, _, err = run(t, "--config", cfg, "docs")
		require.NoError(t, err)
		assert.Contains(t, stdout, "doc1.pdf")
		assert.Contains(t, stdout, "pending")

		stdout, _, err = run(t, "--config", cfg, "sites")
		require.NoError(t, err)
		assert.Contains(t, stdout, "cese.ma")
		assert.Contains(t, stdout, "(2 documents)")
	})

	t.Run("convert reports unreadable pdfs without failing", func(t *testing.T) {
		t.Parallel()

		cfg := writeWorkspace(t, "doc1.pdf")

		stdout, stderr, err := run(t, "--config", cfg, "convert")

		require.NoError(t, err)
		assert.Contains(t, stdout, "Converted: 0")
		assert.Contains(t, stdout, "Failed: 1")
		assert.Contains(t, stderr, "doc1.pdf")
	})

	t.Run("verify reports a consistent empty workspace", func(t *testing.T) {
		t.Parallel()

		cfg := writeWorkspace(t)

		stdout, _, err := run(t, "--config", cfg, "verify")

		require.NoError(t, err)
		assert.Contains(t, stdout, "Store and cache are consistent")
	})

	t.Run("reset removes ingested documents", func(t *testing.T) {
		t.Parallel()

		cfg := writeWorkspace(t, "doc1.pdf")
		_, _, err := run(t, "--config", cfg, "ingest")
		require.NoError(t, err)

		stdout, _, err := run(t, "--config", cfg, "reset", "--all", "--force")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Deleted 1 documents and 0 cache entries")

		stdout, _, err = run(t, "--config", cfg, "ingest")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Created: 1")
	})
}
