package main

import (
	"fmt"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/reorganize"
)

func newReorganizer(deps *Dependencies) *reorganize.Reorganizer {
	return &reorganize.Reorganizer{
		Documents: deps.Documents,
		Sites:     deps.Sites,
		Cache:     deps.Cache,
		Resolver:  deps.Resolver,
		SiteDefs:  deps.Config.SiteDefinitions(),
		Logger:    deps.Logger,
	}
}

// Run executes the reorganize command.
func (c *ReorganizeCmd) Run(deps *Dependencies) error {
	res, err := newReorganizer(deps).Run(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}
	res.Report(deps.Stdout)
	return nil
}

// Run executes the verify command. It fails when the store and the cache
// disagree.
func (c *VerifyCmd) Run(deps *Dependencies) error {
	check, err := newReorganizer(deps).Check(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}
	check.Report(deps.Stdout)
	if !check.Consistent() {
		return docpipe.Errorf(docpipe.EPRECONDITION, "store and result cache are inconsistent")
	}
	return nil
}
