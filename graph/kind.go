// Package graph implements the graph model and builder (§3, §4.1): node
// definitions, edges, structural validation, and a hash-keyed execution plan
// cache consumed by the runner package.
package graph

import "fmt"

// Kind classifies a NodeDefinition by its position in the data flow.
type Kind int

const (
	// Source produces items with no upstream input.
	Source Kind = iota
	// Transform maps each input item to zero, one, or many output items.
	Transform
	// Join combines several input pipes into one output pipe.
	Join
	// Aggregate groups items by key and window, emitting on window close.
	Aggregate
	// Sink consumes a stream to completion and produces no output.
	Sink
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "source"
	case Transform:
		return "transform"
	case Join:
		return "join"
	case Aggregate:
		return "aggregate"
	case Sink:
		return "sink"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
