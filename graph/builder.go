package graph

import (
	"context"
	"time"

	"github.com/flowlinego/flowline/dlq"
	"github.com/flowlinego/flowline/errs"
	"github.com/flowlinego/flowline/node"
	"github.com/flowlinego/flowline/pipe"
	"github.com/flowlinego/flowline/retry"
	"github.com/flowlinego/flowline/window"
)

// Builder accumulates node definitions and edges before compiling them into
// an immutable Graph via Build. A Builder is not safe for concurrent use.
type Builder struct {
	nodes map[string]*NodeDefinition
	order []string
	edges []Edge

	// dupErr records the first duplicate node id encountered by add, so
	// Build can reject it instead of silently keeping the first registration
	// and discarding the conflict.
	dupErr error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]*NodeDefinition)}
}

func (b *Builder) add(def *NodeDefinition) *Builder {
	if _, exists := b.nodes[def.ID]; exists {
		if b.dupErr == nil {
			b.dupErr = &errs.GraphValidationError{Kind: errs.DuplicateNodeID, NodeID: def.ID}
		}
		return b
	}
	b.order = append(b.order, def.ID)
	b.nodes[def.ID] = def
	return b
}

// AddSource registers a source node producing T. A production failure
// reaching the returned pipe mid-stream is routed through def's error
// handler the same way a per-item Transform failure is (§4.5): Retry
// re-invokes src.Execute, DeadLetter/Skip end the stream cleanly, Fail
// forwards the error downstream.
func AddSource[T any](b *Builder, id string, src node.Source[T], opts node.SourceOptions) *Builder {
	def := &NodeDefinition{
		ID:         id,
		Kind:       Source,
		OutputType: pipe.TypeOf[T](),
		SourceOpts: opts,
	}
	def.runSource = func(ctx context.Context) (*pipe.Pipe, error) {
		rawPipe, err := src.Execute(ctx)
		if err != nil {
			return nil, err
		}
		out, w := pipe.New(rawPipe.StreamName(), rawPipe.ElementType(), 0)
		go func() {
			defer w.Close()
			current := rawPipe
			for {
				value, ok, nextErr := current.Next(ctx)
				if !ok {
					if nextErr != nil {
						w.Fail(ctx, nextErr)
					}
					return
				}
				if nextErr != nil {
					next, handled := resolveSourceFailure(ctx, def, nextErr, func(ctx context.Context) (*pipe.Pipe, error) {
						return src.Execute(ctx)
					})
					if !handled {
						w.Fail(ctx, nextErr)
						return
					}
					if next == nil {
						return
					}
					current = next
					continue
				}
				if sendErr := w.Send(ctx, value); sendErr != nil {
					return
				}
			}
		}()
		return out, nil
	}
	return b.add(def)
}

// AddTransform registers a transform node mapping In to Out, applying the
// given execution strategy. A nil strategy defaults to node.Sequential. Each
// item's execution is routed through def's error handler/retry/circuit
// breaker/dead-letter chain before any error is forwarded to the strategy.
func AddTransform[In, Out any](b *Builder, id string, tr node.Transform[In, Out], strategy node.Strategy[In, Out]) *Builder {
	if strategy == nil {
		strategy = node.Sequential[In, Out]{}
	}
	def := &NodeDefinition{
		ID:         id,
		Kind:       Transform,
		InputType:  pipe.TypeOf[In](),
		OutputType: pipe.TypeOf[Out](),
	}
	execute := wrapExecute[In, Out](def, tr.Execute)
	def.runTransform = func(ctx context.Context, in *pipe.Pipe) *pipe.Pipe {
		return strategy.Run(ctx, in, execute)
	}
	return b.add(def)
}

// AddJoin registers a join node combining inputCount ordered input pipes
// into one output pipe of Out. Its single invocation is routed through def's
// decision chain like any other node body.
func AddJoin[Out any](b *Builder, id string, j node.Join[Out], inputCount int) *Builder {
	def := &NodeDefinition{
		ID:         id,
		Kind:       Join,
		OutputType: pipe.TypeOf[Out](),
		InputCount: inputCount,
	}
	def.runJoin = func(ctx context.Context, inputs []*pipe.Pipe) (*pipe.Pipe, error) {
		var result *pipe.Pipe
		err := runOnceWithDecision(ctx, def, inputs, func(ctx context.Context) error {
			r, e := j.Execute(ctx, inputs)
			result = r
			return e
		})
		return result, err
	}
	return b.add(def)
}

// AddAggregate registers an aggregate node windowing and grouping T by K
// into accumulator A, emitting on window close (§4.4). extractor is the
// configured fallback timestamp source consulted when an item does not
// implement EventTimed; it may be nil if every item is expected to
// implement EventTimed itself.
func AddAggregate[T any, K comparable, A any](b *Builder, id string, agg node.Aggregate[T, K, A], assigner window.Assigner, allowedLateness time.Duration, extractor func(T) (time.Time, bool)) *Builder {
	def := &NodeDefinition{
		ID:        id,
		Kind:      Aggregate,
		InputType: pipe.TypeOf[T](),
	}
	def.runTransform = func(ctx context.Context, in *pipe.Pipe) *pipe.Pipe {
		return runAggregate(ctx, in, def, agg, assigner, allowedLateness, extractor)
	}
	// OutputType is deliberately left nil: Aggregate.Emit returns `any`
	// because R may differ from A, so edge-type validation downstream of an
	// aggregate is best-effort (see validate.go).
	return b.add(def)
}

// AddSink registers a sink node consuming T to completion. Its single
// invocation is routed through def's decision chain; note that retrying a
// Sink.Execute call does not rewind the already-partially-drained input
// pipe, since pipes are single-pass (see pipe.Pipe).
func AddSink[T any](b *Builder, id string, sink node.Sink[T]) *Builder {
	def := &NodeDefinition{
		ID:        id,
		Kind:      Sink,
		InputType: pipe.TypeOf[T](),
	}
	def.runSink = func(ctx context.Context, in *pipe.Pipe) error {
		return runOnceWithDecision(ctx, def, in, func(ctx context.Context) error {
			return sink.Execute(ctx, in)
		})
	}
	return b.add(def)
}

// WithErrorHandler attaches a node-level error handler, which takes
// precedence over a source's SourceOptions fallback (open question 1).
func (b *Builder) WithErrorHandler(id string, handler node.ErrorHandler) *Builder {
	if def, ok := b.nodes[id]; ok {
		def.ErrorHandler = handler
	}
	return b
}

// WithRetryPolicy attaches the retry policy applied whenever id's error
// handler decision is Retry.
func (b *Builder) WithRetryPolicy(id string, policy retry.Policy) *Builder {
	if def, ok := b.nodes[id]; ok {
		def.RetryPolicy = policy
	}
	return b
}

// WithCircuitBreaker gates every invocation of id through table, keyed by
// id.
func (b *Builder) WithCircuitBreaker(id string, table *retry.Table) *Builder {
	if def, ok := b.nodes[id]; ok {
		def.Breaker = table
	}
	return b
}

// WithDeadLetterSink attaches the sink items are routed to when id's error
// handler decision is DeadLetter.
func (b *Builder) WithDeadLetterSink(id string, sink dlq.Sink) *Builder {
	if def, ok := b.nodes[id]; ok {
		def.DeadLetterSink = sink
	}
	return b
}

// Connect adds a directed edge from one node id to another. Edge order is
// significant for Join targets.
func (b *Builder) Connect(from, to string) *Builder {
	b.edges = append(b.edges, Edge{From: from, To: to})
	return b
}

// ConnectPorts adds a directed edge carrying source/target port names used
// only for diagram labeling (§6); routing is unaffected.
func (b *Builder) ConnectPorts(from, fromPort, to, toPort string) *Builder {
	b.edges = append(b.edges, Edge{From: from, FromPort: fromPort, To: to, ToPort: toPort})
	return b
}

// Build validates the accumulated nodes and edges and compiles them into an
// immutable Graph. Duplicate node ids are rejected here, before the
// structural checks in validate.go run. See validate.go for the ordered
// list of those checks.
func (b *Builder) Build() (*Graph, error) {
	if b.dupErr != nil {
		return nil, b.dupErr
	}
	return build(b)
}
