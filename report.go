package docpipe

import "time"

// RunStatus is the overall verdict of a pipeline run.
type RunStatus string

// RunStatus constants.
const (
	RunSucceeded RunStatus = "all stages succeeded"
	RunPartial   RunStatus = "partial success"
	RunFailed    RunStatus = "failed"
)

// MinPartialSuccesses is the number of successful stages below which a run
// is reported as failed.
const MinPartialSuccesses = 2

// RunReport aggregates the stage outcomes of one pipeline run. It is never
// persisted.
type RunReport struct {
	RunID     string          `json:"runId"`
	StartedAt time.Time       `json:"startedAt"`
	Duration  time.Duration   `json:"duration"`
	Stages    []*StageOutcome `json:"stages"`
}

// Succeeded returns the number of stages that did not fail.
func (r *RunReport) Succeeded() int {
	var n int
	for _, o := range r.Stages {
		if o.OK() {
			n++
		}
	}
	return n
}

// Status classifies the run from its stage outcomes.
func (r *RunReport) Status() RunStatus {
	ok := r.Succeeded()
	switch {
	case len(r.Stages) > 0 && ok == len(r.Stages):
		return RunSucceeded
	case ok >= MinPartialSuccesses:
		return RunPartial
	default:
		return RunFailed
	}
}
