package mock

import (
	"context"

	"github.com/fwojciec/docpipe"
)

var _ docpipe.StageRunner = (*StageRunner)(nil)

// StageRunner is a mock implementation of docpipe.StageRunner.
type StageRunner struct {
	RunFn func(ctx context.Context, inv docpipe.Invocation) *docpipe.StageOutcome
}

func (r *StageRunner) Run(ctx context.Context, inv docpipe.Invocation) *docpipe.StageOutcome {
	return r.RunFn(ctx, inv)
}

var _ docpipe.ChangeDetector = (*ChangeDetector)(nil)

// ChangeDetector is a mock implementation of docpipe.ChangeDetector.
type ChangeDetector struct {
	FilesNeedingIngestionFn func(ctx context.Context, dir string) (map[string]struct{}, error)
}

func (d *ChangeDetector) FilesNeedingIngestion(ctx context.Context, dir string) (map[string]struct{}, error) {
	return d.FilesNeedingIngestionFn(ctx, dir)
}
