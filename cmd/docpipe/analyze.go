package main

import (
	"fmt"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/analyze"
)

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(deps *Dependencies) error {
	cfg := deps.Config.Analysis
	a := &analyze.Analyzer{
		Documents:   deps.Documents,
		Sites:       deps.Sites,
		Cache:       deps.Cache,
		Extractor:   deps.Extractor,
		Classifier:  deps.Classifier,
		Logger:      deps.Logger,
		Limiter:     deps.Limiter,
		Concurrency: cfg.Concurrency,
		MaxPages:    cfg.MaxPages,
		Limit:       cfg.Limit,
		RetryDelays: cfg.RetryDelays,
	}
	if c.Limit > 0 {
		a.Limit = c.Limit
	}
	if c.Concurrency > 0 {
		a.Concurrency = c.Concurrency
	}

	res, err := a.Analyze(deps.Ctx)
	if res != nil {
		for _, msg := range res.Errors {
			fmt.Fprintf(deps.Stderr, "warning: %s\n", msg)
		}
		res.Report(deps.Stdout)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}
	return nil
}
