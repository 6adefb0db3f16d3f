// Package flowline is a typed, in-process dataflow engine for Go: build a
// graph of sources, transforms, joins, aggregates and sinks, compile it to a
// topologically-ordered execution plan, and run it with bounded-memory
// backpressure, windowed aggregation, retries, circuit breaking and
// at-most-once-effective acknowledgment.
//
// # Quick start
//
//	b := graph.NewBuilder()
//	graph.AddSource[int](b, "numbers", mySource, node.SourceOptions{})
//	graph.AddTransform[int, int](b, "double", node.TransformFunc[int, int](
//		func(ctx context.Context, n int) ([]int, error) { return []int{n * 2}, nil },
//	), nil)
//	graph.AddSink[int](b, "print", mySink)
//	b.Connect("numbers", "double").Connect("double", "print")
//
//	g, err := b.Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//	result := runner.New().Run(context.Background(), g)
//
// # Package layout
//
// pipe holds the type-erased item stream (Pipe/Writer) and the fan-out
// primitive (Branch) that gives every consumer of a node its own
// bounded, backpressured queue.
//
// node defines the per-kind contracts (Source, Transform, Join, Sink,
// Aggregate) and the execution strategies (Sequential, Parallel,
// OrderedParallel) a Transform can run under.
//
// graph turns a Builder's accumulated nodes and edges into a validated,
// immutable Graph: cycle and type checks, a structural hash for plan-cache
// keys, and a deterministic topological order.
//
// runner drives one Graph to completion, wiring each node's output to its
// consumers and inserting a Branch wherever a node fans out to more than
// one.
//
// window implements tumbling and sliding window assignment and watermark
// tracking for Aggregate nodes.
//
// retry implements backoff policies and a per-key circuit breaker table.
//
// ack implements acknowledgment strategies (manual, auto-on-success,
// delayed, batched) over a shared, idempotent ack state.
//
// dlq builds dead-letter envelopes for items a node gives up on.
//
// diag renders a Graph as Mermaid, DOT or an ASCII tree for debugging.
//
// pool holds sync.Pool-backed slice/map/set recyclers used on the item
// hot path.
//
// xlog is the structured logging interface, with a
// stdlib-backed default and a golog-backed implementation.
//
// conn holds reference connector implementations: redisack (Redis-backed
// AcknowledgableMessage source) and sqlitedlq (SQLite-backed dead-letter
// sink).
package flowline
