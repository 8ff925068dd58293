package exec_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/docpipe"
	"github.com/fwojciec/docpipe/exec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sh(script string) []string {
	return []string{"sh", "-c", script}
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("success keeps the last stdout lines", func(t *testing.T) {
		t.Parallel()

		out := exec.NewRunner().Run(context.Background(), docpipe.Invocation{
			Stage: docpipe.StageIngest,
			Args:  sh("for i in 1 2 3 4 5 6 7 8 9 10 11 12; do echo line$i; done"),
		})

		assert.True(t, out.Attempted)
		assert.True(t, out.Succeeded)
		assert.True(t, out.OK())
		assert.Equal(t, 0, out.ExitCode)
		assert.Equal(t, docpipe.StageIngest, out.Stage)
		lines := strings.Split(out.Stdout, "\n")
		require.Len(t, lines, 10)
		assert.Equal(t, "line3", lines[0])
		assert.Equal(t, "line12", lines[9])
	})

	t.Run("honors per-invocation tail length", func(t *testing.T) {
		t.Parallel()

		out := exec.NewRunner().Run(context.Background(), docpipe.Invocation{
			Stage:     docpipe.StageReorganize,
			Args:      sh("printf 'a\\nb\\nc\\nd\\ne\\nf\\ng\\n'"),
			TailLines: 5,
		})

		require.True(t, out.Succeeded)
		assert.Equal(t, "c\nd\ne\nf\ng", out.Stdout)
	})

	t.Run("non-zero exit surfaces stderr", func(t *testing.T) {
		t.Parallel()

		out := exec.NewRunner().Run(context.Background(), docpipe.Invocation{
			Stage: docpipe.StageConvert,
			Args:  sh("echo 'cannot open store' >&2; exit 3"),
		})

		assert.False(t, out.Succeeded)
		assert.False(t, out.OK())
		assert.Equal(t, 3, out.ExitCode)
		assert.Equal(t, "cannot open store", out.Reason)
	})

	t.Run("truncates long stderr", func(t *testing.T) {
		t.Parallel()

		runner := exec.NewRunner()
		runner.StderrLimit = 10
		out := runner.Run(context.Background(), docpipe.Invocation{
			Stage: docpipe.StageAnalyze,
			Args:  sh("printf '%0500d' 0 >&2; exit 1"),
		})

		assert.Equal(t, strings.Repeat("0", 10)+"...", out.Stderr)
	})

	t.Run("timeout kills the stage", func(t *testing.T) {
		t.Parallel()

		begin := time.Now()
		out := exec.NewRunner().Run(context.Background(), docpipe.Invocation{
			Stage:   docpipe.StageScrape,
			Args:    []string{"sleep", "10"},
			Timeout: 100 * time.Millisecond,
		})

		assert.False(t, out.Succeeded)
		assert.True(t, out.TimedOut)
		assert.Equal(t, docpipe.ExitTimedOut, out.ExitCode)
		assert.Contains(t, out.Reason, "timed out")
		assert.Less(t, time.Since(begin), 5*time.Second)
	})

	t.Run("interrupt fails a batch stage", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(100*time.Millisecond, cancel)

		out := exec.NewRunner().Run(ctx, docpipe.Invocation{
			Stage: docpipe.StageAnalyze,
			Args:  []string{"sleep", "10"},
		})

		assert.True(t, out.Interrupted)
		assert.False(t, out.CleanStop)
		assert.False(t, out.OK())
	})

	t.Run("interrupt is a clean stop for a server", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(100*time.Millisecond, cancel)

		out := exec.NewRunner().Run(ctx, docpipe.Invocation{
			Stage:  docpipe.StageServe,
			Args:   []string{"sleep", "10"},
			Server: true,
		})

		assert.True(t, out.Interrupted)
		assert.True(t, out.CleanStop)
		assert.True(t, out.OK())
	})

	t.Run("missing program is a failure", func(t *testing.T) {
		t.Parallel()

		out := exec.NewRunner().Run(context.Background(), docpipe.Invocation{
			Stage: docpipe.StageScrape,
			Args:  []string{"/nonexistent/stage-binary"},
		})

		assert.False(t, out.OK())
		assert.NotEmpty(t, out.Reason)
	})

	t.Run("empty command is a failure", func(t *testing.T) {
		t.Parallel()

		out := exec.NewRunner().Run(context.Background(), docpipe.Invocation{Stage: docpipe.StageScrape})

		assert.False(t, out.OK())
		assert.Equal(t, "no command configured", out.Reason)
	})
}

func TestTailLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", exec.TailLines("", 3))
	assert.Equal(t, "b\nc", exec.TailLines("a\nb\nc\n", 2))
	assert.Equal(t, "a", exec.TailLines("a", 10))
}
