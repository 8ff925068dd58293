package docpipe

import (
	"context"
	"time"
)

// Stage names one independently invocable step of the pipeline.
type Stage string

// Stage constants in pipeline order.
const (
	StageScrape     Stage = "scrape"
	StageConvert    Stage = "convert"
	StageIngest     Stage = "ingest"
	StageReorganize Stage = "reorganize"
	StageAnalyze    Stage = "analyze"

	// StageExtract is recorded on documents whose text extraction failed
	// during analysis.
	StageExtract Stage = "extract"
	// StageServe is the optional long-running server started after the
	// pipeline stages.
	StageServe Stage = "serve"
)

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageScrape, StageConvert, StageIngest, StageReorganize, StageAnalyze}
}

// ExitTimedOut is the exit code reported for a stage killed by its timeout.
const ExitTimedOut = -1

// Invocation describes how to execute one stage.
type Invocation struct {
	Stage Stage
	// Args is the argv of the stage process, including the program.
	Args []string
	// Timeout bounds the stage's wall-clock time. Zero means no limit.
	Timeout time.Duration
	// Server marks a long-running process for which an interrupt is a
	// clean stop rather than a failure.
	Server bool
	// TailLines is how many trailing stdout lines are kept on success.
	TailLines int
}

// StageOutcome is the ephemeral result of one stage in a pipeline run.
type StageOutcome struct {
	Stage       Stage         `json:"stage"`
	Attempted   bool          `json:"attempted"`
	Succeeded   bool          `json:"succeeded"`
	Skipped     bool          `json:"skipped"`
	TimedOut    bool          `json:"timedOut"`
	Interrupted bool          `json:"interrupted"`
	CleanStop   bool          `json:"cleanStop"`
	ExitCode    int           `json:"exitCode"`
	Stdout      string        `json:"stdout"`
	Stderr      string        `json:"stderr"`
	Duration    time.Duration `json:"duration"`
	// Reason summarizes why the stage failed or was skipped.
	Reason string `json:"reason"`
}

// OK reports whether the stage did not fail.
func (o *StageOutcome) OK() bool {
	return o.Succeeded || o.Skipped || o.CleanStop
}

// StageRunner executes a stage as an isolated unit of work.
type StageRunner interface {
	// Run executes the invocation and reports its outcome. Failures of the
	// stage itself are reported in the outcome, never as a panic or error.
	Run(ctx context.Context, inv Invocation) *StageOutcome
}
