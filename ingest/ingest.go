// Package ingest implements the ingest stage: files present in the site
// directories but unknown to the document store are recorded.
package ingest

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/fs"
)

// Result counts the outcome of one ingestion pass.
type Result struct {
	Created    int
	Existing   int
	Unresolved int
	Failed     int
	Errors     []string
}

// Ingester records newly discovered files in the document store.
type Ingester struct {
	Documents  docpipe.DocumentService
	Sites      docpipe.SiteService
	Detector   docpipe.ChangeDetector
	Resolver   *docpipe.SiteResolver
	Logger     *slog.Logger
	Root       string
	SiteDefs   []docpipe.SiteDefinition
	Extensions []string

	siteIDs map[string]int64
}

// Ingest walks every configured site directory and the word directories the
// convert stage writes to. Files the change detector reports as new are
// upserted with their resolved site; every other file counts as existing.
// Item failures are counted and never stop the pass.
func (i *Ingester) Ingest(ctx context.Context) (*Result, error) {
	i.siteIDs = make(map[string]int64)
	res := &Result{}

	seen := make(map[string]bool)
	for _, def := range i.SiteDefs {
		dirs := append(def.Directories(i.Root), def.ConvertedDirectories(i.Root)...)
		for _, dir := range dirs {
			if seen[dir] {
				continue
			}
			seen[dir] = true

			if err := i.ingestDir(ctx, dir, res); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

func (i *Ingester) ingestDir(ctx context.Context, dir string, res *Result) error {
	delta, err := i.Detector.FilesNeedingIngestion(ctx, dir)
	if err != nil {
		return err
	}

	files, err := fs.WalkFiles(ctx, dir, i.Extensions)
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := delta[f.Name]; !ok {
			res.Existing++
			continue
		}

		path, err := filepath.Abs(f.Path)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, f.Path+": "+err.Error())
			continue
		}

		siteID, err := i.resolveSite(ctx, path)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, path+": "+docpipe.ErrorDetail(err))
			continue
		}
		if siteID == nil {
			res.Unresolved++
			i.logger().Warn("unresolved site", "path", path)
		}

		_, created, err := i.Documents.UpsertDiscovered(ctx, &docpipe.DiscoveredFile{
			Filename: f.Name,
			Path:     path,
			Size:     f.Size,
			SiteID:   siteID,
		})
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, path+": "+docpipe.ErrorDetail(err))
			continue
		}
		if created {
			res.Created++
		} else {
			res.Existing++
		}
		// A second copy under another path must not be ingested again.
		delete(delta, f.Name)
	}
	return nil
}

// resolveSite returns nil when path belongs to no known site.
func (i *Ingester) resolveSite(ctx context.Context, path string) (*int64, error) {
	name, ok := i.Resolver.Resolve(path)
	if !ok {
		return nil, nil
	}
	if id, ok := i.siteIDs[name]; ok {
		return &id, nil
	}

	site, err := i.Sites.FindOrCreateSite(ctx, name, i.baseURL(name))
	if err != nil {
		return nil, err
	}
	i.siteIDs[name] = site.ID
	return &site.ID, nil
}

func (i *Ingester) baseURL(name string) string {
	for _, def := range i.SiteDefs {
		if def.Name == name {
			return def.URL()
		}
	}
	return docpipe.DefaultBaseURL(name)
}

func (i *Ingester) logger() *slog.Logger {
	if i.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return i.Logger
}
