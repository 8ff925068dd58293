package slog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fwojciec/docpipe"
)

// Ensure LoggingStageRunner implements docpipe.StageRunner.
var _ docpipe.StageRunner = (*LoggingStageRunner)(nil)

// LoggingStageRunner wraps a StageRunner and logs each invocation and its
// outcome.
type LoggingStageRunner struct {
	next   docpipe.StageRunner
	logger *slog.Logger
}

// NewLoggingStageRunner creates a new LoggingStageRunner.
func NewLoggingStageRunner(next docpipe.StageRunner, logger *slog.Logger) *LoggingStageRunner {
	return &LoggingStageRunner{next: next, logger: logger}
}

// Run delegates to the wrapped runner. Failed stages are logged at warn
// level with the stage's reason.
func (r *LoggingStageRunner) Run(ctx context.Context, inv docpipe.Invocation) *docpipe.StageOutcome {
	r.logger.Info("stage start",
		"stage", inv.Stage,
		"command", strings.Join(inv.Args, " "),
		"timeout", inv.Timeout,
	)

	out := r.next.Run(ctx, inv)

	attrs := []any{
		"stage", inv.Stage,
		"exit", out.ExitCode,
		"duration", out.Duration,
	}
	switch {
	case out.OK():
		r.logger.Info("stage done", attrs...)
	case out.TimedOut:
		r.logger.Warn("stage timed out", append(attrs, "timeout", inv.Timeout)...)
	case out.Interrupted:
		r.logger.Warn("stage interrupted", attrs...)
	default:
		r.logger.Warn("stage failed", append(attrs, "reason", out.Reason)...)
	}
	return out
}
