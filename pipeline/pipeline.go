// Package pipeline sequences the docpipe stages, decides which of them a run
// needs, and aggregates their outcomes into a report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/fwojciec/docpipe"
	"github.com/google/uuid"
)

// StageConfig describes how the pipeline invokes one stage.
type StageConfig struct {
	// Args is the stage argv including the program. Scrape receives one
	// "--site <name>" pair per site appended.
	Args []string
	// Timeout bounds the stage. For scrape it applies per requested site.
	Timeout time.Duration
	// TailLines is how many stdout lines are kept on success.
	TailLines int
}

// Pipeline runs scrape, convert, ingest, reorganize and analyze in order.
// A failed stage never stops the run.
type Pipeline struct {
	Runner    docpipe.StageRunner
	Detector  docpipe.ChangeDetector
	Documents docpipe.DocumentService
	Cache     docpipe.ResultCache
	Logger    *slog.Logger

	// Root is the directory site download directories are relative to.
	Root     string
	SiteDefs []docpipe.SiteDefinition
	Stages   map[docpipe.Stage]StageConfig

	// Serve is the argv of an optional long-running server started after
	// the stages. It runs until interrupted.
	Serve []string

	// ForceScrape runs the scrape stage for every site even when no site
	// reports new files.
	ForceScrape bool

	Now      func() time.Time
	NewRunID func() string
}

// NewPipeline creates a Pipeline with the required collaborators.
func NewPipeline(runner docpipe.StageRunner, detector docpipe.ChangeDetector, docs docpipe.DocumentService, cache docpipe.ResultCache) *Pipeline {
	return &Pipeline{
		Runner:    runner,
		Detector:  detector,
		Documents: docs,
		Cache:     cache,
		Stages:    make(map[docpipe.Stage]StageConfig),
	}
}

// Run executes every stage and returns the run report. The report is
// returned even when ctx is canceled; stages not started by then are
// recorded as interrupted.
func (p *Pipeline) Run(ctx context.Context) *docpipe.RunReport {
	begin := p.now()
	report := &docpipe.RunReport{
		RunID:     p.newRunID(),
		StartedAt: begin,
	}
	logger := p.logger().With("run", report.RunID)
	logger.Info("pipeline start", "stages", len(docpipe.Stages()))

	for _, stage := range docpipe.Stages() {
		if ctx.Err() != nil {
			report.Stages = append(report.Stages, notRun(stage))
			continue
		}

		var out *docpipe.StageOutcome
		switch stage {
		case docpipe.StageScrape:
			out = p.scrape(ctx, logger)
		case docpipe.StageAnalyze:
			out = p.analyze(ctx, logger)
		default:
			out = p.run(ctx, stage, nil, 0)
		}
		report.Stages = append(report.Stages, out)
	}

	if len(p.Serve) > 0 && ctx.Err() == nil {
		logger.Info("starting server", "command", p.Serve)
		report.Stages = append(report.Stages, p.Runner.Run(ctx, docpipe.Invocation{
			Stage:  docpipe.StageServe,
			Args:   p.Serve,
			Server: true,
		}))
	}

	report.Duration = p.now().Sub(begin)
	logger.Info("pipeline done",
		"status", report.Status(),
		"succeeded", report.Succeeded(),
		"stages", len(report.Stages),
		"duration", report.Duration,
	)
	return report
}

// scrape runs the scrape stage for the sites that report files missing from
// the store, or skips it when there are none.
func (p *Pipeline) scrape(ctx context.Context, logger *slog.Logger) *docpipe.StageOutcome {
	sites, err := p.SitesWithNewFiles(ctx)
	if err != nil {
		return failed(docpipe.StageScrape, "change detection: "+docpipe.ErrorDetail(err))
	}
	if p.ForceScrape {
		sites = sites[:0]
		for _, def := range p.SiteDefs {
			sites = append(sites, def.Name)
		}
	}
	if len(sites) == 0 {
		logger.Info("stage skipped", "stage", docpipe.StageScrape, "reason", "no new files")
		return skipped(docpipe.StageScrape, "no new files")
	}

	args := make([]string, 0, 2*len(sites))
	for _, name := range sites {
		args = append(args, "--site", name)
	}
	return p.run(ctx, docpipe.StageScrape, args, len(sites))
}

// SitesWithNewFiles returns the names of configured sites whose directories
// hold files the store does not know yet.
func (p *Pipeline) SitesWithNewFiles(ctx context.Context) ([]string, error) {
	var sites []string
	for _, def := range p.SiteDefs {
		for _, dir := range def.Directories(p.Root) {
			delta, err := p.Detector.FilesNeedingIngestion(ctx, dir)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", def.Name, err)
			}
			if len(delta) > 0 {
				p.logger().Debug("new files", "site", def.Name, "dir", dir, "count", len(delta))
				sites = append(sites, def.Name)
				break
			}
		}
	}
	return sites, nil
}

// analyze runs the analyze stage when documents are pending analysis.
func (p *Pipeline) analyze(ctx context.Context, logger *slog.Logger) *docpipe.StageOutcome {
	pending, err := p.PendingAnalysis(ctx)
	if err != nil {
		return failed(docpipe.StageAnalyze, "pending analysis: "+docpipe.ErrorDetail(err))
	}
	if len(pending) == 0 {
		logger.Info("stage skipped", "stage", docpipe.StageAnalyze, "reason", "no documents pending analysis")
		return skipped(docpipe.StageAnalyze, "no documents pending analysis")
	}
	logger.Info("documents pending analysis", "count", len(pending))
	return p.run(ctx, docpipe.StageAnalyze, nil, 0)
}

// PendingAnalysis returns the documents that are neither analyzed in the
// store nor present in the result cache, without those whose extraction
// failed.
func (p *Pipeline) PendingAnalysis(ctx context.Context) ([]*docpipe.Document, error) {
	entries, err := p.Cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := p.Documents.ListUnanalyzed(ctx, docpipe.CacheKeys(entries))
	if err != nil {
		return nil, err
	}
	return docpipe.AnalysisDelta(docs), nil
}

// run invokes stage with extra args appended. A positive scale multiplies
// the configured timeout.
func (p *Pipeline) run(ctx context.Context, stage docpipe.Stage, extra []string, scale int) *docpipe.StageOutcome {
	sc, ok := p.Stages[stage]
	if !ok || len(sc.Args) == 0 {
		return failed(stage, "no command configured")
	}

	timeout := sc.Timeout
	if scale > 0 {
		timeout *= time.Duration(scale)
	}

	return p.Runner.Run(ctx, docpipe.Invocation{
		Stage:     stage,
		Args:      append(slices.Clone(sc.Args), extra...),
		Timeout:   timeout,
		TailLines: sc.TailLines,
	})
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) newRunID() string {
	if p.NewRunID != nil {
		return p.NewRunID()
	}
	return uuid.NewString()
}

func skipped(stage docpipe.Stage, reason string) *docpipe.StageOutcome {
	return &docpipe.StageOutcome{Stage: stage, Skipped: true, Reason: reason}
}

func failed(stage docpipe.Stage, reason string) *docpipe.StageOutcome {
	return &docpipe.StageOutcome{Stage: stage, ExitCode: -1, Reason: reason}
}

func notRun(stage docpipe.Stage) *docpipe.StageOutcome {
	return &docpipe.StageOutcome{Stage: stage, Interrupted: true, Reason: "not run: interrupted"}
}
