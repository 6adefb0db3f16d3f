package runner

import (
	"context"
	"sync"
	"time"

	"github.com/flowlinego/flowline/graph"
	"github.com/flowlinego/flowline/pipe"
	"github.com/flowlinego/flowline/xlog"
)

// Runner drives one graph to completion: it wires each node's output to its
// consumers in topological order, inserting a Branch when a node has more
// than one consumer, and waits for every sink to finish before reporting a
// Result. A Runner is safe to reuse across many sequential or concurrent
// runs of the same or different graphs; its PlanCache amortizes the
// topological-sort step across structurally identical graphs (invariant 1).
type Runner struct {
	Cache  *graph.PlanCache
	Branch pipe.BranchOptions
	Tracer *Tracer
	Log    xlog.Logger
}

// New creates a Runner with a default-sized plan cache.
func New() *Runner {
	return &Runner{
		Cache: graph.NewPlanCache(graph.DefaultPlanCacheCapacity),
		Log:   xlog.NoOpLogger{},
	}
}

// WithTracer attaches a Tracer and returns the Runner for chaining.
func (r *Runner) WithTracer(t *Tracer) *Runner {
	r.Tracer = t
	return r
}

// definitionType is the cache discriminator for plans produced by this
// runner implementation; bumping it invalidates every cached plan if the
// plan schema ever changes incompatibly.
const definitionType = "runner.v1"

// Run executes g to completion: sources produce, transforms and joins
// relay, sinks drain. It returns once every sink has finished (or the first
// unrecovered error causes the run to stop) and ctx is not itself the
// reason the run ended early.
func (r *Runner) Run(ctx context.Context, g *graph.Graph) *Result {
	start := time.Now()
	plan := r.Cache.GetOrCompile(definitionType, g)

	outputs := make(map[string]*pipe.Pipe, len(plan.Order))
	var mu sync.Mutex
	var errsMu sync.Mutex
	var collected []error

	recordErr := func(err error) {
		if err == nil {
			return
		}
		errsMu.Lock()
		collected = append(collected, err)
		errsMu.Unlock()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sinkWG sync.WaitGroup

	for _, id := range plan.Order {
		def := g.Node(id)
		inEdges := g.InEdges(id)

		var span TraceSpan
		if r.Tracer != nil {
			span = r.Tracer.startSpan(id)
		}

		switch def.Kind {
		case graph.Source:
			out, err := def.RunSource(runCtx)
			if err != nil {
				recordErr(err)
				cancel()
				if r.Tracer != nil {
					r.Tracer.endSpan(span, err)
				}
				continue
			}
			mu.Lock()
			outputs[id] = out
			mu.Unlock()
			if r.Tracer != nil {
				r.Tracer.endSpan(span, nil)
			}

		case graph.Transform, graph.Aggregate:
			in := singleUpstream(outputs, &mu, inEdges)
			if in == nil {
				if r.Tracer != nil {
					r.Tracer.endSpan(span, nil)
				}
				continue
			}
			out := def.RunTransform(runCtx, in)
			mu.Lock()
			outputs[id] = out
			mu.Unlock()
			if r.Tracer != nil {
				r.Tracer.endSpan(span, nil)
			}

		case graph.Join:
			ins := make([]*pipe.Pipe, 0, len(inEdges))
			mu.Lock()
			for _, e := range inEdges {
				if p, ok := outputs[brandedKey(e.From, e.To)]; ok {
					ins = append(ins, p)
				} else if p, ok := outputs[e.From]; ok {
					ins = append(ins, p)
				}
			}
			mu.Unlock()
			out, err := def.RunJoin(runCtx, ins)
			if err != nil {
				recordErr(err)
				cancel()
				if r.Tracer != nil {
					r.Tracer.endSpan(span, err)
				}
				continue
			}
			mu.Lock()
			outputs[id] = out
			mu.Unlock()
			if r.Tracer != nil {
				r.Tracer.endSpan(span, nil)
			}

		case graph.Sink:
			in := singleUpstream(outputs, &mu, inEdges)
			if in == nil {
				if r.Tracer != nil {
					r.Tracer.endSpan(span, nil)
				}
				continue
			}
			sinkWG.Add(1)
			go func(id string, in *pipe.Pipe, span TraceSpan, def *graph.NodeDefinition) {
				defer sinkWG.Done()
				err := def.RunSink(runCtx, in)
				if err != nil {
					recordErr(err)
					cancel()
				}
				if r.Tracer != nil {
					r.Tracer.endSpan(span, err)
				}
			}(id, in, span, def)
		}

		// Fan out to every consumer once a node produces (or relays) an
		// output pipe consumed by more than one edge: Branch gives each
		// consumer its own bounded queue so a slow sink never starves a
		// fast one and vice versa (§4.3 branching/backpressure).
		out := outEdges(g, id)
		if len(out) > 1 {
			mu.Lock()
			upstream, ok := outputs[id]
			mu.Unlock()
			if ok {
				branched := pipe.Branch(runCtx, upstream, len(out), r.Branch)
				mu.Lock()
				for i, e := range out {
					outputs[brandedKey(id, e.To)] = branched[i]
				}
				mu.Unlock()
			}
		}
	}

	sinkWG.Wait()

	errsMu.Lock()
	result := &Result{Success: len(collected) == 0, Errors: collected, Duration: time.Since(start)}
	errsMu.Unlock()
	return result
}

// outEdges returns id's outbound edges.
func outEdges(g *graph.Graph, id string) []graph.Edge {
	return g.OutEdges(id)
}

// brandedKey namespaces a branched pipe by (producer, consumer) so that a
// fanned-out node's per-consumer pipe can be looked up by the consumer
// without colliding with the original, now-superseded single-output entry.
func brandedKey(producer, consumer string) string {
	return producer + "->" + consumer
}

// singleUpstream resolves the one input pipe a Transform or Sink consumes,
// preferring a per-consumer branched pipe over the shared producer output.
func singleUpstream(outputs map[string]*pipe.Pipe, mu *sync.Mutex, inEdges []graph.Edge) *pipe.Pipe {
	if len(inEdges) == 0 {
		return nil
	}
	e := inEdges[0]
	mu.Lock()
	defer mu.Unlock()
	if p, ok := outputs[brandedKey(e.From, e.To)]; ok {
		return p
	}
	return outputs[e.From]
}
