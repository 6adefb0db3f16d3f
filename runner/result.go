// Package runner implements the execution engine (§4.2): topological
// scheduling, per-run pipe wiring, branch insertion for fan-out nodes, and
// the pipeline result and context types nodes execute against.
package runner

import "time"

// Result summarizes one run of a graph.
type Result struct {
	Success  bool
	Errors   []error
	Duration time.Duration
}
