package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/colly"
	"github.com/fwojciec/docpipe/config"
	"github.com/fwojciec/docpipe/convert"
	"golang.org/x/time/rate"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Config *config.Config
	// ConfigPath is forwarded to stage subprocesses.
	ConfigPath string

	Documents docpipe.DocumentService
	Sites     docpipe.SiteService
	Cache     docpipe.ResultCache
	Detector  docpipe.ChangeDetector
	Resolver  *docpipe.SiteResolver

	// Command-specific services.
	Scraper       *colly.Scraper
	Converter     *convert.Converter
	WordConverter *convert.WordConverter
	Extractor     docpipe.TextExtractor
	Classifier    docpipe.Classifier
	Limiter       *rate.Limiter
	Runner        docpipe.StageRunner

	// Executable is the program invoked for each stage by the run command.
	Executable string
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" type:"path" env:"DOCPIPE_CONFIG" help:"Configuration file (default ./docpipe.yaml)"`
	Verbose bool   `short:"v" help:"Log debug output"`

	Run        RunCmd        `cmd:"" help:"Run every pipeline stage and print a report"`
	Scrape     ScrapeCmd     `cmd:"" help:"Download new documents from the configured sites"`
	Convert    ConvertCmd    `cmd:"" help:"Convert saved HTML pages to Markdown"`
	Ingest     IngestCmd     `cmd:"" help:"Record new files in the document store"`
	Reorganize ReorganizeCmd `cmd:"" help:"Attribute documents to sites and reconcile the result cache"`
	Analyze    AnalyzeCmd    `cmd:"" help:"Extract and classify documents not analyzed yet"`
	Reset      ResetCmd      `cmd:"" help:"Delete document records and their cached results"`
	Docs       DocsCmd       `cmd:"" help:"List document records"`
	Sites      SitesCmd      `cmd:"" help:"List sites"`
	Verify     VerifyCmd     `cmd:"" help:"Check that the store and the result cache agree"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	ForceScrape bool `help:"Scrape every site even when none reports new files"`
	NoServe     bool `help:"Do not start the configured server after the stages"`
}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	Site []string `name:"site" short:"s" help:"Site to scrape (repeatable, default all)"`
}

// ConvertCmd is the "convert" subcommand.
type ConvertCmd struct {
	Site []string `name:"site" short:"s" help:"Site to convert (repeatable, default all)"`
}

// IngestCmd is the "ingest" subcommand.
type IngestCmd struct{}

// ReorganizeCmd is the "reorganize" subcommand.
type ReorganizeCmd struct{}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	Limit       int `short:"n" help:"Maximum documents to analyze (0 uses the configured limit)"`
	Concurrency int `help:"Documents analyzed at once (0 uses the configured value)"`
}

// ResetCmd is the "reset" subcommand.
type ResetCmd struct {
	Site  string  `help:"Delete the documents of this site"`
	ID    []int64 `name:"id" help:"Delete the document with this ID (repeatable)"`
	All   bool    `help:"Delete every document"`
	Force bool    `help:"Confirm deletion"`
}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct {
	Site    string `help:"Only documents of this site"`
	Failed  bool   `help:"Only documents with an error"`
	Pending bool   `help:"Only documents not analyzed yet"`
	Limit   int    `short:"n" default:"50" help:"Maximum documents to list (0 for all)"`
}

// SitesCmd is the "sites" subcommand.
type SitesCmd struct{}

// VerifyCmd is the "verify" subcommand.
type VerifyCmd struct{}
