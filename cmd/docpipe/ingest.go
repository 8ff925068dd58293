package main

import (
	"fmt"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/ingest"
)

// Run executes the ingest command.
func (c *IngestCmd) Run(deps *Dependencies) error {
	ing := &ingest.Ingester{
		Documents:  deps.Documents,
		Sites:      deps.Sites,
		Detector:   deps.Detector,
		Resolver:   deps.Resolver,
		Logger:     deps.Logger,
		Root:       deps.Config.DataDir,
		SiteDefs:   deps.Config.SiteDefinitions(),
		Extensions: deps.Config.Extensions,
	}

	res, err := ing.Ingest(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}

	for _, msg := range res.Errors {
		fmt.Fprintf(deps.Stderr, "warning: %s\n", msg)
	}
	fmt.Fprintf(deps.Stdout, "Created: %d\n", res.Created)
	fmt.Fprintf(deps.Stdout, "Already existing: %d\n", res.Existing)
	fmt.Fprintf(deps.Stdout, "Unresolved site: %d\n", res.Unresolved)
	fmt.Fprintf(deps.Stdout, "Failed: %d\n", res.Failed)
	return nil
}
