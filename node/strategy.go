package node

import (
	"context"
	"reflect"
	"sync"

	"github.com/flowlinego/flowline/pipe"
	"github.com/flowlinego/flowline/pool"
)

// Strategy governs how a Transform's execute function is applied across the
// items of an input pipe: one at a time, across N concurrent workers with
// arrival-order output, or across N concurrent workers with input-order
// output restored via a reorder buffer (§4.3).
//
// execute already incorporates retry, circuit-breaking and dead-letter
// decisions (see the retry and dlq packages); Strategy only owns
// concurrency and, for OrderedParallel, result reordering. A non-nil error
// returned by execute is forwarded downstream as a terminal stream failure.
type Strategy[In, Out any] interface {
	Run(ctx context.Context, in *pipe.Pipe, execute func(context.Context, In) ([]Out, error)) *pipe.Pipe
}

// outType returns the reflect.Type tag for the strategy's output pipe.
func outType[Out any]() reflect.Type { return pipe.TypeOf[Out]() }

// Sequential applies execute to one item at a time, in input order. This is
// the default strategy when none is configured.
type Sequential[In, Out any] struct {
	Buffer int
}

// Run implements Strategy.
func (s Sequential[In, Out]) Run(ctx context.Context, in *pipe.Pipe, execute func(context.Context, In) ([]Out, error)) *pipe.Pipe {
	out, w := pipe.New(in.StreamName(), outType[Out](), s.Buffer)
	go func() {
		defer w.Close()
		for {
			raw, ok, err := in.Next(ctx)
			if !ok {
				if err != nil {
					w.Fail(ctx, err)
				}
				return
			}
			if err != nil {
				w.Fail(ctx, err)
				return
			}
			item, _ := raw.(In)
			results, err := execute(ctx, item)
			if err != nil {
				w.Fail(ctx, err)
				return
			}
			for _, r := range results {
				if sendErr := w.Send(ctx, r); sendErr != nil {
					return
				}
			}
		}
	}()
	return out
}

// Parallel applies execute across N concurrent workers. Results are emitted
// in completion order, which may differ from input order.
type Parallel[In, Out any] struct {
	N      int
	Buffer int
}

// Run implements Strategy.
func (p Parallel[In, Out]) Run(ctx context.Context, in *pipe.Pipe, execute func(context.Context, In) ([]Out, error)) *pipe.Pipe {
	n := p.N
	if n < 1 {
		n = 1
	}
	out, w := pipe.New(in.StreamName(), outType[Out](), p.Buffer)

	var wg sync.WaitGroup
	var failOnce sync.Once
	runCtx, cancel := context.WithCancel(ctx)

	worker := func() {
		defer wg.Done()
		for {
			raw, ok, err := in.Next(runCtx)
			if !ok {
				if err != nil {
					failOnce.Do(func() { w.Fail(ctx, err); cancel() })
				}
				return
			}
			if err != nil {
				failOnce.Do(func() { w.Fail(ctx, err); cancel() })
				return
			}
			item, _ := raw.(In)
			results, execErr := safeExecute(runCtx, execute, item)
			if execErr != nil {
				failOnce.Do(func() { w.Fail(ctx, execErr); cancel() })
				return
			}
			for _, r := range results {
				if sendErr := w.Send(ctx, r); sendErr != nil {
					return
				}
			}
		}
	}

	wg.Add(n)
	for i := 0; i < n; i++ {
		go worker()
	}
	go func() {
		wg.Wait()
		cancel()
		w.Close()
	}()
	return out
}

// OrderedParallel applies execute across N concurrent workers but restores
// input order on the output side via a reorder buffer, trading some latency
// for determinism.
type OrderedParallel[In, Out any] struct {
	N      int
	Buffer int

	// pending, when set via NewOrderedParallel, pools the reorder buffer's
	// backing map across Run calls instead of allocating a fresh one each
	// time. The zero value leaves it nil, so a bare struct literal (as used
	// throughout the test suite) falls back to a plain map per Run.
	pending *pool.Map[int, indexedOut[Out]]
}

// NewOrderedParallel returns an OrderedParallel[In, Out] whose reorder
// buffer is drawn from a shared pool across repeated Run calls, cutting the
// per-run map allocation for strategies reused across many node invocations.
func NewOrderedParallel[In, Out any](n, buffer int) OrderedParallel[In, Out] {
	return OrderedParallel[In, Out]{N: n, Buffer: buffer, pending: pool.NewMap[int, indexedOut[Out]]()}
}

type indexedIn[In any] struct {
	seq  int
	item In
	err  error
}

type indexedOut[Out any] struct {
	seq     int
	results []Out
	err     error
}

// Run implements Strategy.
func (o OrderedParallel[In, Out]) Run(ctx context.Context, in *pipe.Pipe, execute func(context.Context, In) ([]Out, error)) *pipe.Pipe {
	n := o.N
	if n < 1 {
		n = 1
	}
	out, w := pipe.New(in.StreamName(), outType[Out](), o.Buffer)

	intake := make(chan indexedIn[In], n)
	results := make(chan indexedOut[Out], n)
	runCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(intake)
		seq := 0
		for {
			raw, ok, err := in.Next(runCtx)
			if !ok {
				if err != nil {
					intake <- indexedIn[In]{seq: seq, err: err}
				}
				return
			}
			item, _ := raw.(In)
			intake <- indexedIn[In]{seq: seq, item: item, err: err}
			seq++
			if err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			for in := range intake {
				if in.err != nil {
					results <- indexedOut[Out]{seq: in.seq, err: in.err}
					continue
				}
				rs, err := safeExecute(runCtx, execute, in.item)
				results <- indexedOut[Out]{seq: in.seq, results: rs, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer cancel()
		defer w.Close()
		var pending map[int]indexedOut[Out]
		if o.pending != nil {
			pending = o.pending.Get()
			defer o.pending.Put(pending)
		} else {
			pending = make(map[int]indexedOut[Out])
		}
		next := 0
		for r := range results {
			pending[r.seq] = r
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if ready.err != nil {
					w.Fail(ctx, ready.err)
					return
				}
				for _, v := range ready.results {
					if sendErr := w.Send(ctx, v); sendErr != nil {
						return
					}
				}
			}
		}
	}()

	return out
}

// safeExecute recovers a panicking execute call into an error, mirroring the
// teacher's SafeGo/panic-recovery convention around concurrent node bodies.
func safeExecute[In, Out any](ctx context.Context, execute func(context.Context, In) ([]Out, error), item In) (results []Out, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{recovered: r}
		}
	}()
	return execute(ctx, item)
}

type panicError struct{ recovered any }

func (p panicError) Error() string { return "node panicked: " + formatRecovered(p.recovered) }

func formatRecovered(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "unknown panic"
}
