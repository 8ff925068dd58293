// Package reorganize implements the maintenance stage. It attributes
// documents to sites and reconciles the result cache with the document
// store. It never deletes anything.
package reorganize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/docpipe"
)

// Result counts the changes made by one maintenance pass.
type Result struct {
	SitesEnsured int
	Attributed   int
	Unresolved   int

	// Restored counts cache entries written back to the store.
	Restored int

	// Cached counts analyzed records added to the cache.
	Cached int

	// Orphaned counts cache entries without a document record.
	Orphaned int
}

// Reorganizer runs the maintenance pass.
type Reorganizer struct {
	Documents docpipe.DocumentService
	Sites     docpipe.SiteService
	Cache     docpipe.ResultCache
	Resolver  *docpipe.SiteResolver
	SiteDefs  []docpipe.SiteDefinition
	Logger    *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Run ensures configured sites exist, attributes unattributed documents and
// reconciles the cache with the store in both directions.
func (r *Reorganizer) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	sites := make(map[string]*docpipe.Site)
	for _, def := range r.SiteDefs {
		site, err := r.Sites.FindOrCreateSite(ctx, def.Name, def.URL())
		if err != nil {
			return res, fmt.Errorf("ensure site %s: %w", def.Name, err)
		}
		sites[site.Name] = site
		res.SitesEnsured++
	}

	if err := r.attribute(ctx, sites, res); err != nil {
		return res, err
	}
	if err := r.reconcile(ctx, res); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Reorganizer) attribute(ctx context.Context, sites map[string]*docpipe.Site, res *Result) error {
	docs, err := r.Documents.FindDocuments(ctx, docpipe.DocumentFilter{Unattributed: true})
	if err != nil {
		return err
	}

	for _, doc := range docs {
		name, ok := r.Resolver.Resolve(doc.Path)
		if !ok {
			res.Unresolved++
			r.logger().Warn("unresolved site", "id", doc.ID, "path", doc.Path)
			continue
		}
		site, ok := sites[name]
		if !ok {
			site, err = r.Sites.FindOrCreateSite(ctx, name, docpipe.DefaultBaseURL(name))
			if err != nil {
				return err
			}
			sites[name] = site
		}
		if err := r.Documents.AssignSite(ctx, doc.ID, site.ID); err != nil {
			return err
		}
		res.Attributed++
	}
	return nil
}

func (r *Reorganizer) reconcile(ctx context.Context, res *Result) error {
	entries, err := r.Cache.Load(ctx)
	if err != nil {
		return err
	}

	// Cache to store.
	for id, entry := range entries {
		doc, err := r.Documents.FindDocumentByID(ctx, id)
		if docpipe.ErrorCode(err) == docpipe.ENOTFOUND {
			res.Orphaned++
			continue
		} else if err != nil {
			return err
		}
		if doc.IsAnalyzed || !doc.IsExtracted || entry.Analysis.IsError() {
			continue
		}
		analysis := entry.Analysis
		if err := r.Documents.RecordAnalysis(ctx, id, &analysis); err != nil {
			return err
		}
		res.Restored++
	}

	// Store to cache.
	analyzed := true
	docs, err := r.Documents.FindDocuments(ctx, docpipe.DocumentFilter{IsAnalyzed: &analyzed})
	if err != nil {
		return err
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	missing := make(map[int64]*docpipe.CacheEntry)
	siteByID := make(map[int64]*docpipe.Site)
	for _, doc := range docs {
		if _, ok := entries[doc.ID]; ok {
			continue
		}
		site, err := r.site(ctx, doc.SiteID, siteByID)
		if err != nil {
			return err
		}
		analyzedAt := doc.UpdatedAt
		if analyzedAt.IsZero() {
			analyzedAt = now()
		}
		missing[doc.ID] = docpipe.NewCacheEntry(doc, site, doc.Classification(), analyzedAt)
	}
	if len(missing) == 0 {
		return nil
	}
	if _, err := r.Cache.MergeAndSave(ctx, missing); err != nil {
		return err
	}
	res.Cached = len(missing)
	return nil
}

func (r *Reorganizer) site(ctx context.Context, id *int64, cache map[int64]*docpipe.Site) (*docpipe.Site, error) {
	if id == nil {
		return nil, nil
	}
	if site, ok := cache[*id]; ok {
		return site, nil
	}
	site, err := r.Sites.FindSiteByID(ctx, *id)
	if docpipe.ErrorCode(err) == docpipe.ENOTFOUND {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	cache[*id] = site
	return site, nil
}

func (r *Reorganizer) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Report summarizes the pass, one count per line.
func (res *Result) Report(w io.Writer) {
	fmt.Fprintf(w, "Sites ensured: %d\n", res.SitesEnsured)
	fmt.Fprintf(w, "Documents attributed: %d (unresolved: %d)\n", res.Attributed, res.Unresolved)
	fmt.Fprintf(w, "Analyses restored from cache: %d\n", res.Restored)
	fmt.Fprintf(w, "Analyses added to cache: %d\n", res.Cached)
	fmt.Fprintf(w, "Orphaned cache entries: %d\n", res.Orphaned)
}
