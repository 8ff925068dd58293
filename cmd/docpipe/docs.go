package main

import (
	"fmt"

	"github.com/fwojciec/docpipe"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	filter := docpipe.DocumentFilter{Failed: c.Failed, Limit: c.Limit}
	if c.Pending {
		analyzed := false
		filter.IsAnalyzed = &analyzed
	}
	if c.Site != "" {
		site, err := findSite(deps, c.Site)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
			return err
		}
		filter.SiteID = &site.ID
	}

	docs, err := deps.Documents.FindDocuments(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docpipe.ErrorDetail(err))
		return err
	}

	if len(docs) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents found. Use 'docpipe ingest' to record downloaded files.")
		return nil
	}

	for _, doc := range docs {
		fmt.Fprintf(deps.Stdout, "%5d  %-9s %s\n", doc.ID, documentStatus(doc), doc.Filename)
		if doc.IsAnalyzed {
			fmt.Fprintf(deps.Stdout, "       %s / %s / %s\n", doc.Language, doc.Theme, doc.Confidence)
		}
		if doc.ErrorMessage != nil {
			fmt.Fprintf(deps.Stdout, "       error: %s\n", *doc.ErrorMessage)
		}
	}
	return nil
}

func documentStatus(doc *docpipe.Document) string {
	switch {
	case doc.IsAnalyzed:
		return "analyzed"
	case doc.ErrorMessage != nil:
		return "failed"
	case doc.IsExtracted:
		return "extracted"
	default:
		return "pending"
	}
}
