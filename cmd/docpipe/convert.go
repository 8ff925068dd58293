package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/convert"
)

type dirConverter interface {
	ConvertDir(ctx context.Context, dir string) (*convert.Result, error)
}

// Run executes the convert command: PDFs become Word documents in each
// site's word directory, saved pages become Markdown.
func (c *ConvertCmd) Run(deps *Dependencies) error {
	defs, err := selectSites(deps.Config, c.Site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}

	var converters []dirConverter
	if deps.WordConverter != nil {
		converters = append(converters, deps.WordConverter)
	}
	if deps.Converter != nil {
		converters = append(converters, deps.Converter)
	}

	var total convert.Result
	for _, def := range defs {
		for _, dir := range def.Directories(deps.Config.DataDir) {
			for _, conv := range converters {
				res, err := conv.ConvertDir(deps.Ctx, dir)
				if err != nil {
					fmt.Fprintf(deps.Stderr, "error: %s: %s\n", dir, docpipe.ErrorDetail(err))
					return err
				}
				total.Converted += res.Converted
				total.UpToDate += res.UpToDate
				total.Skipped += res.Skipped
				total.Failed += res.Failed
				for _, msg := range res.Errors {
					fmt.Fprintf(deps.Stderr, "warning: %s\n", msg)
				}
			}
		}
	}

	fmt.Fprintf(deps.Stdout, "Converted: %d\n", total.Converted)
	fmt.Fprintf(deps.Stdout, "Up to date: %d\n", total.UpToDate)
	fmt.Fprintf(deps.Stdout, "Skipped: %d\n", total.Skipped)
	fmt.Fprintf(deps.Stdout, "Failed: %d\n", total.Failed)
	return nil
}
