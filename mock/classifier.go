package mock

import (
	"context"

	"github.com/fwojciec/docpipe"
)

var _ docpipe.Classifier = (*Classifier)(nil)

// Classifier is a mock implementation of docpipe.Classifier.
type Classifier struct {
	ClassifyFn func(ctx context.Context, text string) (*docpipe.Classification, error)
}

func (c *Classifier) Classify(ctx context.Context, text string) (*docpipe.Classification, error) {
	return c.ClassifyFn(ctx, text)
}
