package analyze

import (
	"context"
	"time"

	"github.com/fwojciec/docpipe"
)

// ClassifyFunc is the signature for a classification call.
type ClassifyFunc func(ctx context.Context, text string) (*docpipe.Classification, error)

// LogFunc is the signature for a logging function.
type LogFunc func(msg string, args ...any)

// DefaultRetryDelays returns the backoff delays for classification retries:
// 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// ClassifyWithRetry calls classify until it succeeds, waiting delays[i]
// before retry i+1. Only ECLASSIFY errors are retried; other errors and a
// canceled context return immediately.
func ClassifyWithRetry(ctx context.Context, text string, classify ClassifyFunc, logger LogFunc, delays []time.Duration) (*docpipe.Classification, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c, err := classify(ctx, text)
		if err == nil {
			return c, nil
		}
		lastErr = err

		if docpipe.ErrorCode(err) != docpipe.ECLASSIFY || attempt >= maxAttempts-1 {
			break
		}

		if logger != nil {
			logger("classification retry", "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}
	return nil, lastErr
}
