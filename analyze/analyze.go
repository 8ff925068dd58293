// Package analyze implements the analysis stage: every document that is not
// analyzed in the store and absent from the result cache is extracted if
// needed, classified, and recorded in both.
package analyze

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/docpipe"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Defaults for Analyzer.
const (
	DefaultConcurrency = 4
	DefaultMaxPages    = 3
)

// Result counts the outcome of one analysis pass.
type Result struct {
	Pending          int
	Analyzed         int
	ExtractionFailed int
	ClassifyFailed   int
	Failed           int
	Cached           int
	Errors           []string
}

// Analyzer runs the analysis stage.
type Analyzer struct {
	Documents  docpipe.DocumentService
	Sites      docpipe.SiteService
	Cache      docpipe.ResultCache
	Extractor  docpipe.TextExtractor
	Classifier docpipe.Classifier
	Logger     *slog.Logger

	// Limiter bounds the rate of classification requests. Optional.
	Limiter *rate.Limiter

	// Concurrency is the number of documents processed at once.
	Concurrency int

	// MaxPages bounds the pages read per document.
	MaxPages int

	// Limit caps the number of documents processed in one pass. Zero means
	// no cap.
	Limit int

	// RetryDelays overrides DefaultRetryDelays. Useful in tests.
	RetryDelays []time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

type outcome int

const (
	outcomeAnalyzed outcome = iota
	outcomeExtractionFailed
	outcomeClassifyFailed
	outcomeFailed
	outcomeCanceled
)

type docResult struct {
	doc     *docpipe.Document
	outcome outcome
	entry   *docpipe.CacheEntry
	err     error
}

// Analyze processes the analysis delta. Item failures are recorded on the
// document and counted. New cache entries are merged once at the end, also
// when ctx is canceled part way through.
func (a *Analyzer) Analyze(ctx context.Context) (*Result, error) {
	entries, err := a.Cache.Load(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := a.Documents.ListUnanalyzed(ctx, docpipe.CacheKeys(entries))
	if err != nil {
		return nil, err
	}
	docs = docpipe.AnalysisDelta(docs)
	if a.Limit > 0 && len(docs) > a.Limit {
		docs = docs[:a.Limit]
	}

	res := &Result{Pending: len(docs)}
	if len(docs) == 0 {
		return res, nil
	}

	sites, err := a.loadSites(ctx)
	if err != nil {
		return nil, err
	}

	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	resultCh := make(chan docResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for _, doc := range docs {
			g.Go(func() error {
				resultCh <- a.processDocument(gctx, doc, sites)
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	fresh := make(map[int64]*docpipe.CacheEntry)
	for r := range resultCh {
		switch r.outcome {
		case outcomeAnalyzed:
			res.Analyzed++
			fresh[r.doc.ID] = r.entry
			continue
		case outcomeExtractionFailed:
			res.ExtractionFailed++
		case outcomeClassifyFailed:
			res.ClassifyFailed++
		case outcomeFailed:
			res.Failed++
		case outcomeCanceled:
			continue
		}
		if r.err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", r.doc.Filename, docpipe.Truncate(docpipe.ErrorDetail(r.err), 200)))
		}
	}

	if len(fresh) > 0 {
		// Finished work is kept even when the pass was interrupted.
		n, err := a.Cache.MergeAndSave(context.WithoutCancel(ctx), fresh)
		if err != nil {
			return res, err
		}
		res.Cached = n
	}
	return res, ctx.Err()
}

func (a *Analyzer) processDocument(ctx context.Context, doc *docpipe.Document, sites map[int64]*docpipe.Site) docResult {
	r := docResult{doc: doc}
	if ctx.Err() != nil {
		r.outcome = outcomeCanceled
		return r
	}

	text := doc.Text()
	if !doc.IsExtracted {
		maxPages := a.MaxPages
		if maxPages == 0 {
			maxPages = DefaultMaxPages
		}
		ext, err := a.Extractor.ExtractText(ctx, doc.Path, maxPages)
		if err != nil {
			if !docpipe.IsExtractionFailure(err) {
				return a.fail(ctx, r, docpipe.StageAnalyze, outcomeFailed, err)
			}
			return a.fail(ctx, r, docpipe.StageExtract, outcomeExtractionFailed, err)
		}
		// A storage error is not the file's fault; it must stay in the delta.
		if err := a.Documents.RecordExtraction(ctx, doc.ID, ext); err != nil {
			return a.fail(ctx, r, docpipe.StageAnalyze, outcomeFailed, err)
		}
		text = ext.Text
		doc.TextLength = len([]rune(text))
		doc.IsExtracted = true
	}

	if a.Limiter != nil {
		if err := a.Limiter.Wait(ctx); err != nil {
			r.outcome = outcomeCanceled
			return r
		}
	}

	delays := a.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	c, err := ClassifyWithRetry(ctx, text, a.Classifier.Classify, a.logger().Warn, delays)
	if err != nil {
		return a.fail(ctx, r, docpipe.StageAnalyze, outcomeClassifyFailed, err)
	}
	if c.IsError() {
		return a.fail(ctx, r, docpipe.StageAnalyze, outcomeClassifyFailed,
			docpipe.Errorf(docpipe.ECLASSIFY, "unusable classification response"))
	}

	if err := a.Documents.RecordAnalysis(ctx, doc.ID, c); err != nil {
		return a.fail(ctx, r, docpipe.StageAnalyze, outcomeFailed, err)
	}

	var site *docpipe.Site
	if doc.SiteID != nil {
		site = sites[*doc.SiteID]
	}
	r.outcome = outcomeAnalyzed
	r.entry = docpipe.NewCacheEntry(doc, site, *c, a.now())
	return r
}

// fail records the failure on the document unless ctx was canceled, in
// which case the document is simply left for the next run.
func (a *Analyzer) fail(ctx context.Context, r docResult, stage docpipe.Stage, o outcome, err error) docResult {
	if ctx.Err() != nil {
		r.outcome = outcomeCanceled
		return r
	}
	r.outcome = o
	r.err = err
	msg := docpipe.Truncate(docpipe.ErrorDetail(err), 500)
	if merr := a.Documents.MarkFailed(ctx, r.doc.ID, stage, msg); merr != nil {
		a.logger().Error("mark failed", "id", r.doc.ID, "err", merr)
	}
	return r
}

func (a *Analyzer) loadSites(ctx context.Context) (map[int64]*docpipe.Site, error) {
	list, err := a.Sites.FindSites(ctx, docpipe.SiteFilter{})
	if err != nil {
		return nil, err
	}
	sites := make(map[int64]*docpipe.Site, len(list))
	for _, s := range list {
		sites[s.ID] = s
	}
	return sites, nil
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// Report prints the pass summary.
func (res *Result) Report(w io.Writer) {
	fmt.Fprintf(w, "Documents to analyze: %d\n", res.Pending)
	fmt.Fprintf(w, "Analyzed: %d\n", res.Analyzed)
	fmt.Fprintf(w, "Extraction failed: %d\n", res.ExtractionFailed)
	fmt.Fprintf(w, "Classification failed: %d\n", res.ClassifyFailed)
	if res.Failed > 0 {
		fmt.Fprintf(w, "Storage errors: %d\n", res.Failed)
	}
	fmt.Fprintf(w, "Cache entries written: %d\n", res.Cached)
}
