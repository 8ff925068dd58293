package main

import (
	"fmt"

	"github.com/fwojciec/docpipe"
)

// Run executes the reset command. Deleted records also lose their result
// cache entries so the next run processes them from scratch.
func (c *ResetCmd) Run(deps *Dependencies) error {
	selectors := 0
	for _, set := range []bool{c.Site != "", len(c.ID) > 0, c.All} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		fmt.Fprintf(deps.Stderr, "error: specify exactly one of --site, --id or --all\n")
		return docpipe.Errorf(docpipe.EINVALID, "specify exactly one of --site, --id or --all")
	}
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return docpipe.Errorf(docpipe.EINVALID, "use --force to confirm deletion")
	}

	filters, err := c.filters(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}

	var deleted []int64
	for _, filter := range filters {
		ids, err := deps.Documents.DeleteDocuments(deps.Ctx, filter)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
			return err
		}
		deleted = append(deleted, ids...)
	}

	removed := 0
	if len(deleted) > 0 {
		removed, err = deps.Cache.Invalidate(deps.Ctx, deleted)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: documents deleted but cache not updated: %s\n", docpipe.ErrorDetail(err))
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Deleted %d documents and %d cache entries\n", len(deleted), removed)
	return nil
}

func (c *ResetCmd) filters(deps *Dependencies) ([]docpipe.DocumentFilter, error) {
	switch {
	case c.All:
		return []docpipe.DocumentFilter{{}}, nil
	case c.Site != "":
		site, err := findSite(deps, c.Site)
		if err != nil {
			return nil, err
		}
		return []docpipe.DocumentFilter{{SiteID: &site.ID}}, nil
	}

	filters := make([]docpipe.DocumentFilter, 0, len(c.ID))
	for _, id := range c.ID {
		filters = append(filters, docpipe.DocumentFilter{ID: &id})
	}
	return filters, nil
}

func findSite(deps *Dependencies, name string) (*docpipe.Site, error) {
	sites, err := deps.Sites.FindSites(deps.Ctx, docpipe.SiteFilter{Name: &name})
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return nil, docpipe.Errorf(docpipe.ENOTFOUND, "site %q not found. Use 'docpipe sites' to see known sites.", name)
	}
	return sites[0], nil
}
