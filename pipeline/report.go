package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/docpipe"
)

// WriteReport prints a human-readable summary of a run.
func WriteReport(w io.Writer, r *docpipe.RunReport) {
	fmt.Fprintf(w, "Pipeline run %s (%s)\n", r.RunID, r.Duration.Round(time.Millisecond))
	for _, o := range r.Stages {
		fmt.Fprintf(w, "  %-10s %-11s %s\n", o.Stage, outcomeLabel(o), outcomeDetail(o))
		if o.Succeeded && o.Stdout != "" {
			for _, line := range strings.Split(o.Stdout, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
	fmt.Fprintf(w, "Result: %s (%d/%d stages succeeded)\n", r.Status(), r.Succeeded(), len(r.Stages))
}

func outcomeLabel(o *docpipe.StageOutcome) string {
	switch {
	case o.Skipped:
		return "skipped"
	case o.CleanStop:
		return "stopped"
	case o.Succeeded:
		return "ok"
	case o.TimedOut:
		return "TIMEOUT"
	case o.Interrupted:
		return "INTERRUPTED"
	default:
		return "FAILED"
	}
}

func outcomeDetail(o *docpipe.StageOutcome) string {
	switch {
	case o.Skipped:
		return o.Reason
	case o.Succeeded || o.CleanStop:
		return o.Duration.Round(time.Millisecond).String()
	case !o.Attempted:
		return o.Reason
	}
	reason := strings.ReplaceAll(o.Reason, "\n", " ")
	return fmt.Sprintf("%s, exit %d: %s", o.Duration.Round(time.Millisecond), o.ExitCode, docpipe.Truncate(reason, 200))
}
