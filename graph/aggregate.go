package graph

import (
	"context"
	"errors"
	"time"

	"github.com/flowlinego/flowline/errs"
	"github.com/flowlinego/flowline/node"
	"github.com/flowlinego/flowline/pipe"
	"github.com/flowlinego/flowline/window"
)

// EventTimed is implemented by items that carry their own event timestamp.
// It is always consulted before a node's configured extractor (§4.4).
type EventTimed interface {
	EventTime() time.Time
}

// resolveEventTime applies the §4.4 priority order: the item's own
// EventTimed timestamp, then the node's configured extractor, and only if
// neither yields one is the item considered to have no usable timestamp.
func resolveEventTime[T any](item T, extractor func(T) (time.Time, bool)) (time.Time, error) {
	if et, ok := any(item).(EventTimed); ok {
		return et.EventTime(), nil
	}
	if extractor != nil {
		if ts, ok := extractor(item); ok {
			return ts, nil
		}
	}
	return time.Time{}, errMissingTimestamp
}

// errMissingTimestamp is a sentinel swapped for a *errs.MissingTimestampError
// carrying the failing node's id at the call site, since resolveEventTime
// has no NodeDefinition to reach into.
var errMissingTimestamp = errors.New("item has no usable event timestamp")

// runAggregate drives one aggregate node: assigns each input item to its
// window(s), accumulates per (window, key), and emits a result the moment
// the watermark passes a window's end. It is grounded on the same
// single-goroutine pump shape as node.Sequential, since aggregation state is
// inherently sequential per node.
func runAggregate[T any, K comparable, A any](ctx context.Context, in *pipe.Pipe, def *NodeDefinition, agg node.Aggregate[T, K, A], assigner window.Assigner, allowedLateness time.Duration, extractor func(T) (time.Time, bool)) *pipe.Pipe {
	out, w := pipe.New(in.StreamName(), nil, 0)
	go func() {
		defer w.Close()

		table := window.NewTable[K, A]()
		wm := window.NewWatermark(allowedLateness)

		emitClosed := func(upTo time.Time) bool {
			for _, win := range table.Windows() {
				if !wm.ShouldClose(win) {
					continue
				}
				accs := table.Accumulators(win)
				for _, acc := range accs {
					result, err := agg.Emit(win, acc.Key, acc.State)
					if err != nil {
						w.Fail(ctx, err)
						table.ReleaseAccumulators(accs)
						return false
					}
					if sendErr := w.Send(ctx, result); sendErr != nil {
						table.ReleaseAccumulators(accs)
						return false
					}
				}
				table.ReleaseAccumulators(accs)
				table.Evict(win)
			}
			return true
		}

		for {
			raw, ok, err := in.Next(ctx)
			if !ok {
				if err != nil {
					w.Fail(ctx, err)
					return
				}
				// End of input: flush every remaining window regardless of
				// watermark, since no more items will ever arrive.
				for _, win := range table.Windows() {
					accs := table.Accumulators(win)
					for _, acc := range accs {
						result, emitErr := agg.Emit(win, acc.Key, acc.State)
						if emitErr != nil {
							w.Fail(ctx, emitErr)
							table.ReleaseAccumulators(accs)
							return
						}
						if sendErr := w.Send(ctx, result); sendErr != nil {
							table.ReleaseAccumulators(accs)
							return
						}
					}
					table.ReleaseAccumulators(accs)
				}
				return
			}
			if err != nil {
				w.Fail(ctx, err)
				return
			}
			item, _ := raw.(T)
			ts, tsErr := resolveEventTime(item, extractor)
			if tsErr != nil {
				w.Fail(ctx, &errs.MissingTimestampError{NodeID: def.ID})
				return
			}
			wm.Advance(ts)

			key := agg.GetKey(item)
			for _, win := range assigner.AssignWindows(ts) {
				if wm.IsLate(win) {
					continue
				}
				acc := table.GetOrCreate(win, key, agg.CreateAccumulator)
				acc.State = agg.Accumulate(acc.State, item)
			}

			if !emitClosed(ts) {
				return
			}
		}
	}()
	return out
}
