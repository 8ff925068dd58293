// Package exec runs pipeline stages as isolated operating system processes.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fwojciec/docpipe"
)

// Defaults for Runner.
const (
	DefaultStderrLimit = 2000
	DefaultTailLines   = 10
	DefaultStopGrace   = 5 * time.Second
)

// Ensure Runner implements docpipe.StageRunner at compile time.
var _ docpipe.StageRunner = (*Runner)(nil)

// Runner executes each stage invocation as a child process. A stage that
// exceeds its timeout is killed. An interrupt of the parent context sends
// SIGINT and kills the child if it has not exited after StopGrace.
type Runner struct {
	// Dir is the working directory of stage processes.
	Dir string
	// Env is the environment of stage processes. Nil inherits the parent's.
	Env []string

	StderrLimit int
	StopGrace   time.Duration
}

// NewRunner creates a Runner with default limits.
func NewRunner() *Runner {
	return &Runner{
		StderrLimit: DefaultStderrLimit,
		StopGrace:   DefaultStopGrace,
	}
}

// Run executes inv and reports its outcome.
func (r *Runner) Run(ctx context.Context, inv docpipe.Invocation) *docpipe.StageOutcome {
	begin := time.Now()
	out := &docpipe.StageOutcome{Stage: inv.Stage, Attempted: true}
	defer func() { out.Duration = time.Since(begin) }()

	if len(inv.Args) == 0 {
		out.ExitCode = -1
		out.Reason = "no command configured"
		return out
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if inv.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
	}
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, inv.Args[0], inv.Args[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		if ctx.Err() != nil {
			return cmd.Process.Signal(os.Interrupt)
		}
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = r.stopGrace()

	err := cmd.Run()

	tail := inv.TailLines
	if tail <= 0 {
		tail = DefaultTailLines
	}
	out.Stdout = TailLines(stdout.String(), tail)
	out.Stderr = docpipe.Truncate(strings.TrimSpace(stderr.String()), r.stderrLimit())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		out.Succeeded = true
	case ctx.Err() != nil:
		out.Interrupted = true
		out.ExitCode = exitCode(err)
		if inv.Server {
			out.CleanStop = true
			out.Reason = "stopped by interrupt"
		} else {
			out.Reason = "interrupted"
		}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.TimedOut = true
		out.ExitCode = docpipe.ExitTimedOut
		out.Reason = fmt.Sprintf("timed out after %s", inv.Timeout)
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		out.Reason = out.Stderr
		if out.Reason == "" {
			out.Reason = fmt.Sprintf("exit status %d", out.ExitCode)
		}
	default:
		out.ExitCode = -1
		out.Reason = docpipe.Truncate(err.Error(), r.stderrLimit())
	}

	return out
}

func (r *Runner) stderrLimit() int {
	if r.StderrLimit > 0 {
		return r.StderrLimit
	}
	return DefaultStderrLimit
}

func (r *Runner) stopGrace() time.Duration {
	if r.StopGrace > 0 {
		return r.StopGrace
	}
	return DefaultStopGrace
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// TailLines returns the last n lines of s.
func TailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
