package docpipe_test

import (
	"testing"

	"github.com/fwojciec/docpipe"
	"github.com/stretchr/testify/assert"
)

func outcomes(ok ...bool) []*docpipe.StageOutcome {
	var out []*docpipe.StageOutcome
	for _, o := range ok {
		out = append(out, &docpipe.StageOutcome{Attempted: true, Succeeded: o})
	}
	return out
}

func TestRunReport_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stages []*docpipe.StageOutcome
		want   docpipe.RunStatus
	}{
		{"all succeeded", outcomes(true, true, true, true, true), docpipe.RunSucceeded},
		{"two succeeded", outcomes(true, false, true, false, false), docpipe.RunPartial},
		{"one succeeded", outcomes(false, false, true, false, false), docpipe.RunFailed},
		{"none run", nil, docpipe.RunFailed},
		{
			"skipped stages count as not failed",
			[]*docpipe.StageOutcome{{Skipped: true}, {Succeeded: true}, {Skipped: true}},
			docpipe.RunSucceeded,
		},
		{
			"clean stop of a server counts as not failed",
			[]*docpipe.StageOutcome{{Succeeded: true}, {CleanStop: true, Interrupted: true}},
			docpipe.RunSucceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &docpipe.RunReport{Stages: tt.stages}
			assert.Equal(t, tt.want, r.Status())
		})
	}
}

func TestClassification_IsError(t *testing.T) {
	t.Parallel()

	assert.True(t, docpipe.ErrorClassification().IsError())
	assert.True(t, (*docpipe.Classification)(nil).IsError())
	assert.False(t, (&docpipe.Classification{Language: "Français", Theme: "Erreur"}).IsError())
}
