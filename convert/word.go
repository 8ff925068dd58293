package convert

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/docx"
	"github.com/fwojciec/docpipe/fs"
)

// WordConverter rewrites downloaded PDFs as Word documents in the word
// directory of their download directory, where ingest picks them up.
type WordConverter struct {
	Pages  docpipe.PageReader
	Logger *slog.Logger

	// MinTextLength is the least text a PDF must yield to be converted.
	MinTextLength int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewWordConverter creates a new WordConverter.
func NewWordConverter(pages docpipe.PageReader) *WordConverter {
	return &WordConverter{
		Pages:         pages,
		MinTextLength: docpipe.DefaultMinTextLength,
		Now:           time.Now,
	}
}

// ConvertDir converts every PDF under dir that has no up-to-date .docx in
// docpipe.WordDirectory(dir). PDFs without a usable text layer are skipped.
func (c *WordConverter) ConvertDir(ctx context.Context, dir string) (*Result, error) {
	pdfs, err := fs.WalkFiles(ctx, dir, []string{".pdf"})
	if err != nil {
		return nil, err
	}

	target := docpipe.WordDirectory(dir)
	res := &Result{}
	for _, f := range pdfs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		dst := filepath.Join(target, WordName(f.Name))
		if upToDate(f.Path, dst) {
			res.UpToDate++
			continue
		}

		err := c.ConvertFile(ctx, f.Path, dst)
		switch {
		case err == nil:
			res.Converted++
		case docpipe.ErrorCode(err) == docpipe.EEMPTY:
			res.Skipped++
			c.logger().Debug("no text layer", "file", f.Path)
		default:
			res.Failed++
			res.Errors = append(res.Errors, f.Path+": "+docpipe.ErrorDetail(err))
		}
	}
	return res, nil
}

// ConvertFile writes the pages of the PDF at src as a .docx at dst.
func (c *WordConverter) ConvertFile(ctx context.Context, src, dst string) error {
	pages, err := c.Pages.ReadPages(ctx, src)
	if err != nil {
		return err
	}

	var total int
	for _, p := range pages {
		total += len([]rune(strings.TrimSpace(p)))
	}
	if total < c.MinTextLength || total == 0 {
		return docpipe.Errorf(docpipe.EEMPTY, "no usable text in %s", filepath.Base(src))
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return docx.WriteFile(dst, &docx.Document{
		Title:    strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Pages:    pages,
		Modified: now(),
	})
}

// WordName returns the .docx file name for a PDF file name.
func WordName(pdfName string) string {
	return strings.TrimSuffix(pdfName, filepath.Ext(pdfName)) + ".docx"
}

func (c *WordConverter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}
