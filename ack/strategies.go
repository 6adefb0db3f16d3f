package ack

import (
	"context"
	"sync"
	"time"

	"github.com/flowlinego/flowline/errs"
	"github.com/flowlinego/flowline/node"
	"github.com/flowlinego/flowline/pipe"
)

// Options configures the acknowledgment strategies below.
type Options struct {
	// CancelDelayedOnFailure governs Delayed's behaviour when the wrapped
	// sink fails: true (the only implemented policy, and the default)
	// cancels the pending delayed acknowledgment outright rather than
	// acknowledging a message whose sink application failed. See open
	// question 2.
	CancelDelayedOnFailure bool
}

// DefaultOptions returns Options{CancelDelayedOnFailure: true}.
func DefaultOptions() Options {
	return Options{CancelDelayedOnFailure: true}
}

// Manual performs no automatic acknowledgment; the sink function is
// responsible for calling msg.Acknowledge itself, typically after
// confirming a side effect (e.g. a database write) succeeded.
func Manual[T any](apply func(ctx context.Context, msg *AcknowledgableMessage[T]) error) node.Sink[*AcknowledgableMessage[T]] {
	return node.SinkFunc[*AcknowledgableMessage[T]](func(ctx context.Context, in *pipe.Pipe) error {
		for {
			raw, ok, err := in.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			msg, _ := raw.(*AcknowledgableMessage[T])
			if applyErr := apply(ctx, msg); applyErr != nil {
				return applyErr
			}
		}
	})
}

// AutoOnSinkSuccess acknowledges each message immediately after apply
// returns nil, and never acknowledges a message whose apply call failed.
// Processing continues past a failed message; the first such failure is
// returned as an *errs.ItemProcessingError once the input is drained.
func AutoOnSinkSuccess[T any](apply func(ctx context.Context, item T) error) node.Sink[*AcknowledgableMessage[T]] {
	return node.SinkFunc[*AcknowledgableMessage[T]](func(ctx context.Context, in *pipe.Pipe) error {
		var firstErr error
		for {
			raw, ok, err := in.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return firstErr
			}
			msg, _ := raw.(*AcknowledgableMessage[T])
			if applyErr := apply(ctx, msg.Body); applyErr != nil {
				if firstErr == nil {
					firstErr = &errs.ItemProcessingError{NodeID: "", Item: msg.Body, Err: applyErr}
				}
				continue
			}
			if ackErr := msg.Acknowledge(ctx); ackErr != nil {
				return ackErr
			}
		}
	})
}

// Delayed applies the sink immediately but defers acknowledgment by delay,
// so a crash within the delay window leaves the message unacknowledged and
// eligible for provider-side redelivery even though the side effect already
// ran. On sink failure, per opts.CancelDelayedOnFailure, the pending
// acknowledgment is cancelled; opts.CancelDelayedOnFailure == false is not
// implemented and returns a ConfigurationError rather than silently
// acknowledging or silently dropping the message. Execute returns only after
// every scheduled acknowledgment has fired or ctx is done.
func Delayed[T any](delay time.Duration, opts Options, apply func(ctx context.Context, item T) error) (node.Sink[*AcknowledgableMessage[T]], error) {
	if !opts.CancelDelayedOnFailure {
		return nil, &errs.ConfigurationError{
			Field:  "ack.Options.CancelDelayedOnFailure",
			Detail: "false (acknowledge-despite-failure) is not implemented; see open question 2",
		}
	}
	return node.SinkFunc[*AcknowledgableMessage[T]](func(ctx context.Context, in *pipe.Pipe) error {
		var wg sync.WaitGroup
		defer wg.Wait()
		for {
			raw, ok, err := in.Next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			msg, _ := raw.(*AcknowledgableMessage[T])
			applyErr := apply(ctx, msg.Body)
			if applyErr != nil {
				// Cancel: do not schedule acknowledgment for this message.
				continue
			}
			wg.Add(1)
			go func(msg *AcknowledgableMessage[T]) {
				defer wg.Done()
				timer := time.NewTimer(delay)
				defer timer.Stop()
				select {
				case <-timer.C:
					_ = msg.Acknowledge(context.Background())
				case <-ctx.Done():
				}
			}(msg)
		}
	}), nil
}

// BatchOptions bounds Batch's accumulation window.
type BatchOptions struct {
	MaxBatchSize  int
	MaxBatchDelay time.Duration
}

// Batch accumulates up to MaxBatchSize messages, or whatever arrives within
// MaxBatchDelay of the first message in a batch, then invokes applyBatch
// once per batch. applyBatch returns one error per input item (nil meaning
// success); only the successfully applied subset is acknowledged, matching
// the S6 partial-failure scenario.
func Batch[T any](opts BatchOptions, applyBatch func(ctx context.Context, items []T) []error) node.Sink[*AcknowledgableMessage[T]] {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 1
	}
	return node.SinkFunc[*AcknowledgableMessage[T]](func(ctx context.Context, in *pipe.Pipe) error {
		items := make(chan *AcknowledgableMessage[T])
		errCh := make(chan error, 1)
		go func() {
			defer close(items)
			for {
				raw, ok, err := in.Next(ctx)
				if err != nil {
					errCh <- err
					return
				}
				if !ok {
					return
				}
				msg, _ := raw.(*AcknowledgableMessage[T])
				select {
				case items <- msg:
				case <-ctx.Done():
					return
				}
			}
		}()

		flush := func(batch []*AcknowledgableMessage[T]) error {
			if len(batch) == 0 {
				return nil
			}
			bodies := make([]T, len(batch))
			for i, m := range batch {
				bodies[i] = m.Body
			}
			results := applyBatch(ctx, bodies)
			for i, m := range batch {
				if i < len(results) && results[i] != nil {
					continue
				}
				_ = m.Acknowledge(ctx)
			}
			return nil
		}

		var batch []*AcknowledgableMessage[T]
		var timer *time.Timer
		var timerC <-chan time.Time
		for {
			select {
			case msg, ok := <-items:
				if !ok {
					if timer != nil {
						timer.Stop()
					}
					return flush(batch)
				}
				if len(batch) == 0 {
					timer = time.NewTimer(opts.MaxBatchDelay)
					timerC = timer.C
				}
				batch = append(batch, msg)
				if len(batch) >= opts.MaxBatchSize {
					if timer != nil {
						timer.Stop()
					}
					if err := flush(batch); err != nil {
						return err
					}
					batch = nil
					timerC = nil
				}
			case <-timerC:
				if err := flush(batch); err != nil {
					return err
				}
				batch = nil
				timerC = nil
			case err := <-errCh:
				return err
			}
		}
	})
}
