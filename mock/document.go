package mock

import (
	"context"

	"github.com/fwojciec/docpipe"
)

var _ docpipe.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of docpipe.DocumentService.
type DocumentService struct {
	UpsertDiscoveredFn func(ctx context.Context, f *docpipe.DiscoveredFile) (*docpipe.Document, bool, error)
	FindDocumentByIDFn func(ctx context.Context, id int64) (*docpipe.Document, error)
	FindDocumentsFn    func(ctx context.Context, filter docpipe.DocumentFilter) ([]*docpipe.Document, error)
	ListUnanalyzedFn   func(ctx context.Context, exclude map[int64]struct{}) ([]*docpipe.Document, error)
	FilenamesFn        func(ctx context.Context) (map[string]struct{}, error)
	RecordExtractionFn func(ctx context.Context, id int64, res *docpipe.ExtractionResult) error
	RecordAnalysisFn   func(ctx context.Context, id int64, c *docpipe.Classification) error
	MarkFailedFn       func(ctx context.Context, id int64, stage docpipe.Stage, message string) error
	AssignSiteFn       func(ctx context.Context, id int64, siteID int64) error
	DeleteDocumentsFn  func(ctx context.Context, filter docpipe.DocumentFilter) ([]int64, error)
}

func (s *DocumentService) UpsertDiscovered(ctx context.Context, f *docpipe.DiscoveredFile) (*docpipe.Document, bool, error) {
	return s.UpsertDiscoveredFn(ctx, f)
}

func (s *DocumentService) FindDocumentByID(ctx context.Context, id int64) (*docpipe.Document, error) {
	return s.FindDocumentByIDFn(ctx, id)
}

func (s *DocumentService) FindDocuments(ctx context.Context, filter docpipe.DocumentFilter) ([]*docpipe.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentService) ListUnanalyzed(ctx context.Context, exclude map[int64]struct{}) ([]*docpipe.Document, error) {
	return s.ListUnanalyzedFn(ctx, exclude)
}

func (s *DocumentService) Filenames(ctx context.Context) (map[string]struct{}, error) {
	return s.FilenamesFn(ctx)
}

func (s *DocumentService) RecordExtraction(ctx context.Context, id int64, res *docpipe.ExtractionResult) error {
	return s.RecordExtractionFn(ctx, id, res)
}

func (s *DocumentService) RecordAnalysis(ctx context.Context, id int64, c *docpipe.Classification) error {
	return s.RecordAnalysisFn(ctx, id, c)
}

func (s *DocumentService) MarkFailed(ctx context.Context, id int64, stage docpipe.Stage, message string) error {
	return s.MarkFailedFn(ctx, id, stage, message)
}

func (s *DocumentService) AssignSite(ctx context.Context, id int64, siteID int64) error {
	return s.AssignSiteFn(ctx, id, siteID)
}

func (s *DocumentService) DeleteDocuments(ctx context.Context, filter docpipe.DocumentFilter) ([]int64, error) {
	return s.DeleteDocumentsFn(ctx, filter)
}
