package graph

import (
	"context"
	"reflect"

	"github.com/flowlinego/flowline/dlq"
	"github.com/flowlinego/flowline/node"
	"github.com/flowlinego/flowline/pipe"
	"github.com/flowlinego/flowline/retry"
)

// NodeDefinition is the type-erased, wire-ready description of one node
// produced by the Builder's typed AddXxx methods. The graph, runner and plan
// cache only ever deal with NodeDefinition; the generic node.Source[T] /
// node.Transform[In,Out] / ... values supplied by the caller are captured
// once, at Add time, into the bindings below.
type NodeDefinition struct {
	ID         string
	Kind       Kind
	InputType  reflect.Type // nil for Source
	OutputType reflect.Type // nil for Sink
	// InputCount is only meaningful for Join: the number of inbound edges
	// the join expects. Build does not check it against the inbound edges.
	InputCount int

	ErrorHandler node.ErrorHandler
	SourceOpts   node.SourceOptions

	// RetryPolicy governs Retry decisions from ErrorHandler/SourceOpts: it is
	// the policy handed to retry.Policy.Run around this node's invocation.
	// The zero value (Policy{}) runs fn once, so a node with no configured
	// policy that returns Retry gets a single extra call, whose failure is
	// handed back to the handler for another decision.
	RetryPolicy retry.Policy
	// Breaker, if set, gates every invocation of this node through a shared
	// circuit breaker keyed by ID.
	Breaker *retry.Table
	// DeadLetterSink receives envelopes for items the error handler routed
	// to DeadLetter. A nil sink makes DeadLetter a no-op drop.
	DeadLetterSink dlq.Sink

	runSource    func(ctx context.Context) (*pipe.Pipe, error)
	runTransform func(ctx context.Context, in *pipe.Pipe) *pipe.Pipe
	runJoin      func(ctx context.Context, inputs []*pipe.Pipe) (*pipe.Pipe, error)
	runSink      func(ctx context.Context, in *pipe.Pipe) error
}

// Edge is a directed connection between two node ids. For Join targets, the
// order edges were added determines the order inputs are passed to
// node.Join.Execute. FromPort and ToPort are optional port names used only
// for diagram labeling (see export.go); they carry no routing meaning.
type Edge struct {
	From     string
	To       string
	FromPort string
	ToPort   string
}

// RunSource invokes the bound source production function. It panics if
// called on a non-Source definition; callers drive this from a validated
// Graph, where Kind is known statically from the runner's topological walk.
func (d *NodeDefinition) RunSource(ctx context.Context) (*pipe.Pipe, error) {
	return d.runSource(ctx)
}

// RunTransform invokes the bound, strategy-wrapped transform function.
func (d *NodeDefinition) RunTransform(ctx context.Context, in *pipe.Pipe) *pipe.Pipe {
	return d.runTransform(ctx, in)
}

// RunJoin invokes the bound join function.
func (d *NodeDefinition) RunJoin(ctx context.Context, inputs []*pipe.Pipe) (*pipe.Pipe, error) {
	return d.runJoin(ctx, inputs)
}

// RunSink invokes the bound sink function, blocking until the input stream
// is fully drained or an error occurs.
func (d *NodeDefinition) RunSink(ctx context.Context, in *pipe.Pipe) error {
	return d.runSink(ctx, in)
}
