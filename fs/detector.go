package fs

import (
	"context"

	"github.com/fwojciec/docpipe"
)

// Ensure ChangeDetector implements docpipe.ChangeDetector at compile time.
var _ docpipe.ChangeDetector = (*ChangeDetector)(nil)

// ChangeDetector compares files on disk against the document store by base
// filename. Filenames known under any path count as present, so a relocated
// file is not ingested twice; a modified file kept under the same name is not
// detected either.
type ChangeDetector struct {
	Documents  docpipe.DocumentService
	Extensions []string
}

// NewChangeDetector creates a ChangeDetector for files with the given
// extensions.
func NewChangeDetector(docs docpipe.DocumentService, exts []string) *ChangeDetector {
	return &ChangeDetector{Documents: docs, Extensions: exts}
}

// FilesNeedingIngestion returns the base filenames under dir that the store
// does not know yet.
func (d *ChangeDetector) FilesNeedingIngestion(ctx context.Context, dir string) (map[string]struct{}, error) {
	files, err := WalkFiles(ctx, dir, d.Extensions)
	if err != nil {
		return nil, err
	}

	delta := make(map[string]struct{})
	if len(files) == 0 {
		return delta, nil
	}

	known, err := d.Documents.Filenames(ctx)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if _, ok := known[f.Name]; !ok {
			delta[f.Name] = struct{}{}
		}
	}
	return delta, nil
}
