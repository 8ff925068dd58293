package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/config"
)

// Run executes the scrape command. Every requested site is attempted; the
// command fails if any of them failed.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	defs, err := selectSites(deps.Config, c.Site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}

	var errs []error
	for _, def := range defs {
		res, err := deps.Scraper.Scrape(deps.Ctx, def)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %s\n", def.Name, docpipe.ErrorDetail(err))
			errs = append(errs, fmt.Errorf("%s: %w", def.Name, err))
			if deps.Ctx.Err() != nil {
				break
			}
			continue
		}
		fmt.Fprintf(deps.Stdout, "%s: %d pages, %d downloaded, %d already present, %d failed\n",
			def.Name, res.Pages, res.Downloaded, res.Existing, res.Failed)
	}
	return errors.Join(errs...)
}

// selectSites returns the named site definitions, or all of them when names
// is empty.
func selectSites(cfg *config.Config, names []string) ([]docpipe.SiteDefinition, error) {
	if len(names) == 0 {
		return cfg.SiteDefinitions(), nil
	}
	defs := make([]docpipe.SiteDefinition, 0, len(names))
	for _, name := range names {
		def, err := cfg.Site(name)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
