package graph

import (
	"context"
	"errors"

	"github.com/flowlinego/flowline/dlq"
	"github.com/flowlinego/flowline/errs"
	"github.com/flowlinego/flowline/pipe"
)

// resolveDecision asks def's node-level ErrorHandler, falling back to the
// source fallback options when none is configured (open question 1: a
// node-level handler always takes precedence).
func resolveDecision(ctx context.Context, def *NodeDefinition, attempt int, err error) errs.Decision {
	if def.ErrorHandler != nil {
		return def.ErrorHandler(ctx, def.ID, attempt, err)
	}
	return def.SourceOpts.Resolve(err)
}

// deadLetter routes item to def's configured sink, doing nothing if none is
// set.
func deadLetter(ctx context.Context, def *NodeDefinition, item any, attempt int, err error) {
	if def.DeadLetterSink == nil {
		return
	}
	env := dlq.NewEnvelope(def.ID, item, err, attempt)
	_ = def.DeadLetterSink.Handle(ctx, env)
}

// callWithBreaker runs fn through def's circuit breaker, if any.
func callWithBreaker(ctx context.Context, def *NodeDefinition, fn func(ctx context.Context) error) error {
	if def.Breaker == nil {
		return fn(ctx)
	}
	return def.Breaker.Execute(ctx, def.ID, fn)
}

// wrapExecute wraps a Transform/Aggregate's per-item execute function with
// the error handler/retry/circuit-breaker/dead-letter decision chain (§4.5,
// §7): on Skip or DeadLetter the item is dropped (nil, nil); on Fail the
// error propagates to the caller unchanged; on Retry, def.RetryPolicy.Run
// retries the call, and a retry-exhaustion error is fed back into the
// handler for a second decision (this is what lets a handler first answer
// Retry and then, once the policy exhausts, answer DeadLetter for the same
// item).
func wrapExecute[In, Out any](def *NodeDefinition, execute func(context.Context, In) ([]Out, error)) func(context.Context, In) ([]Out, error) {
	return func(ctx context.Context, item In) ([]Out, error) {
		call := func(ctx context.Context) ([]Out, error) {
			var results []Out
			err := callWithBreaker(ctx, def, func(ctx context.Context) error {
				r, e := execute(ctx, item)
				results = r
				return e
			})
			return results, err
		}

		results, err := call(ctx)
		if err == nil {
			return results, nil
		}
		attempt := 1
		for {
			switch resolveDecision(ctx, def, attempt, err) {
			case errs.Skip:
				return nil, nil
			case errs.DeadLetter:
				deadLetter(ctx, def, item, attempt, err)
				return nil, nil
			case errs.Retry:
				var retried []Out
				execErr := def.RetryPolicy.Run(ctx, def.ID, func(ctx context.Context, _ int) error {
					r, e := call(ctx)
					retried = r
					return e
				})
				if execErr == nil {
					return retried, nil
				}
				var nodeErr *errs.NodeExecutionError
				if errors.As(execErr, &nodeErr) {
					attempt = nodeErr.Attempt
					err = nodeErr.Err
					continue
				}
				return nil, execErr
			default:
				return nil, err
			}
		}
	}
}

// runOnceWithDecision applies the same decision chain as wrapExecute around
// a one-shot call (Join.Execute or Sink.Execute), which have no per-item
// result slice to thread through. item is passed through only for dead
// letter envelopes.
func runOnceWithDecision(ctx context.Context, def *NodeDefinition, item any, fn func(ctx context.Context) error) error {
	call := func(ctx context.Context) error {
		return callWithBreaker(ctx, def, fn)
	}
	err := call(ctx)
	if err == nil {
		return nil
	}
	attempt := 1
	for {
		switch resolveDecision(ctx, def, attempt, err) {
		case errs.Skip:
			return nil
		case errs.DeadLetter:
			deadLetter(ctx, def, item, attempt, err)
			return nil
		case errs.Retry:
			execErr := def.RetryPolicy.Run(ctx, def.ID, func(ctx context.Context, _ int) error {
				return call(ctx)
			})
			if execErr == nil {
				return nil
			}
			var nodeErr *errs.NodeExecutionError
			if errors.As(execErr, &nodeErr) {
				attempt = nodeErr.Attempt
				err = nodeErr.Err
				continue
			}
			return execErr
		default:
			return err
		}
	}
}

// resolveSourceFailure applies the decision chain to a source's mid-stream
// production failure. A source's *pipe.Pipe is returned once by Execute and
// fails later, out of band, via Writer.Fail; Retry therefore means
// re-invoking reopen (which calls src.Execute again) rather than replaying
// the already-consumed pipe. It returns the pipe to continue consuming from
// (nil if the stream should end cleanly) and whether the failure was
// resolved at all; false means the original error should be forwarded as a
// terminal stream failure.
func resolveSourceFailure(ctx context.Context, def *NodeDefinition, err error, reopen func(ctx context.Context) (*pipe.Pipe, error)) (*pipe.Pipe, bool) {
	attempt := 1
	for {
		switch resolveDecision(ctx, def, attempt, err) {
		case errs.Skip:
			return nil, true
		case errs.DeadLetter:
			deadLetter(ctx, def, nil, attempt, err)
			return nil, true
		case errs.Retry:
			var next *pipe.Pipe
			execErr := def.RetryPolicy.Run(ctx, def.ID, func(ctx context.Context, _ int) error {
				p, rerr := reopen(ctx)
				if rerr != nil {
					return rerr
				}
				next = p
				return nil
			})
			if execErr == nil {
				return next, true
			}
			var nodeErr *errs.NodeExecutionError
			if errors.As(execErr, &nodeErr) {
				attempt = nodeErr.Attempt
				err = nodeErr.Err
				continue
			}
			return nil, false
		default:
			return nil, false
		}
	}
}
