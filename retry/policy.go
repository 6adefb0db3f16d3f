package retry

import (
	"context"
	"time"

	"github.com/flowlinego/flowline/errs"
)

// Policy bounds how many times a node invocation is retried and how long to
// wait between attempts. MaxAttempts is the total number of calls, including
// the first. Attempt numbering starts at 0 for the first call; a retry is
// attempt 1, 2, and so on, up to MaxAttempts-1.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
}

// DefaultPolicy makes up to 3 attempts (2 retries) with exponential backoff starting at
// 100ms, doubling, capped at 5s, with 20% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Backoff:     Exponential{Base: 100e6, Multiplier: 2, Max: 5e9, Jitter: 0.2},
	}
}

// Run invokes fn, retrying per policy while fn returns an error and the
// attempt budget remains. It stops early, returning an
// *errs.CancellationError, if ctx is cancelled before an attempt or during a
// backoff wait. Once the attempts are exhausted it returns an
// *errs.NodeExecutionError wrapping the last error. nodeID is recorded on
// either error.
func (p Policy) Run(ctx context.Context, nodeID string, fn func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return &errs.CancellationError{NodeID: nodeID}
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == maxAttempts-1 {
			break
		}
		if p.Backoff == nil {
			continue
		}
		delay := p.Backoff.Delay(attempt)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			return &errs.CancellationError{NodeID: nodeID}
		}
	}
	return &errs.NodeExecutionError{NodeID: nodeID, Attempt: maxAttempts, Decision: errs.Fail, Err: lastErr}
}
