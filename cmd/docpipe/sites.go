package main

import (
	"fmt"

	"github.com/fwojciec/docpipe"
)

// Run executes the sites command.
func (c *SitesCmd) Run(deps *Dependencies) error {
	sites, err := deps.Sites.FindSites(deps.Ctx, docpipe.SiteFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}

	if len(sites) == 0 {
		fmt.Fprintln(deps.Stdout, "No sites found. Use 'docpipe reorganize' to create the configured sites.")
		return nil
	}

	for _, s := range sites {
		docs, err := deps.Documents.FindDocuments(deps.Ctx, docpipe.DocumentFilter{SiteID: &s.ID})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "%d  %s  %s  (%d documents)\n", s.ID, s.Name, s.BaseURL, len(docs))
	}
	return nil
}
