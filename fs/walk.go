package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File is a regular file found under a site directory.
type File struct {
	Name string
	Path string
	Size int64
}

// WalkFiles recursively lists regular files under dir whose extension is in
// exts (case-insensitive). An empty exts matches every file. A missing dir
// yields no files and no error.
func WalkFiles(ctx context.Context, dir string, exts []string) ([]File, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		// Skip in-flight atomic writes.
		if strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}
		if !MatchExtension(d.Name(), exts) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, File{Name: d.Name(), Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// MatchExtension reports whether name has one of exts.
func MatchExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
