// Package node defines the contract every pipeline node implements (§6):
// sources, transforms, joins, aggregates and sinks, plus the execution
// strategies and error-handling hooks that the graph and runner packages
// wire around them.
//
// Each kind is expressed as a narrow interface plus a matching Func adapter,
// the same shape the teacher uses for its node listeners: implement the
// interface directly for stateful nodes, or hand the builder a plain
// function for everything else.
package node

import (
	"context"

	"github.com/flowlinego/flowline/pipe"
	"github.com/flowlinego/flowline/window"
)

// Source produces a stream of T with no upstream input. Execute is called
// once per run and returns a pipe the runner drains until end of stream.
type Source[T any] interface {
	Execute(ctx context.Context) (*pipe.Pipe, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc[T any] func(ctx context.Context) (*pipe.Pipe, error)

// Execute implements Source.
func (f SourceFunc[T]) Execute(ctx context.Context) (*pipe.Pipe, error) { return f(ctx) }

// Transform maps one input item to zero, one, or many output items.
// Returning zero items drops the input; returning more than one fans out.
type Transform[In, Out any] interface {
	Execute(ctx context.Context, item In) ([]Out, error)
}

// TransformFunc adapts a plain function to Transform.
type TransformFunc[In, Out any] func(ctx context.Context, item In) ([]Out, error)

// Execute implements Transform.
func (f TransformFunc[In, Out]) Execute(ctx context.Context, item In) ([]Out, error) {
	return f(ctx, item)
}

// Join combines an ordered collection of input pipes into a single output
// pipe. Implementations decide how to correlate items across inputs (e.g. by
// a shared key, or simple interleaving); the graph only guarantees that
// Execute receives the inputs in the order the edges were added.
type Join[Out any] interface {
	Execute(ctx context.Context, inputs []*pipe.Pipe) (*pipe.Pipe, error)
}

// JoinFunc adapts a plain function to Join.
type JoinFunc[Out any] func(ctx context.Context, inputs []*pipe.Pipe) (*pipe.Pipe, error)

// Execute implements Join.
func (f JoinFunc[Out]) Execute(ctx context.Context, inputs []*pipe.Pipe) (*pipe.Pipe, error) {
	return f(ctx, inputs)
}

// Sink consumes a stream to completion and produces no output pipe.
type Sink[T any] interface {
	Execute(ctx context.Context, in *pipe.Pipe) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc[T any] func(ctx context.Context, in *pipe.Pipe) error

// Execute implements Sink.
func (f SinkFunc[T]) Execute(ctx context.Context, in *pipe.Pipe) error { return f(ctx, in) }

// Aggregate groups items of type T by key K into an accumulator A, keyed per
// window, and emits a result when a window closes (§4.4). When the emitted
// type equals A this degenerates to returning the accumulator itself.
type Aggregate[T any, K comparable, A any] interface {
	GetKey(item T) K
	CreateAccumulator() A
	Accumulate(acc A, item T) A
	Emit(w window.Window, key K, acc A) (any, error)
}
