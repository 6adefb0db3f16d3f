// Package errs defines the distinct, externally observable error kinds raised by
// the flowline core: graph validation, node construction and execution, circuit
// breaking, timeouts, cancellation and configuration.
package errs

import "fmt"

// ValidationKind distinguishes the ways a Graph can fail Build().
type ValidationKind int

const (
	// DuplicateNodeID means two nodes were registered under the same id.
	DuplicateNodeID ValidationKind = iota
	// UnknownEndpoint means an edge refers to a node id that was never added.
	UnknownEndpoint
	// Cycle means the node set is not a DAG.
	Cycle
	// SourceHasInbound means a Source node has one or more inbound edges.
	SourceHasInbound
	// SinkHasOutbound means a Sink node has one or more outbound edges.
	SinkHasOutbound
	// TypeMismatch means an edge's output element type is not assignable to
	// its input element type.
	TypeMismatch
)

func (k ValidationKind) String() string {
	switch k {
	case DuplicateNodeID:
		return "duplicate node id"
	case UnknownEndpoint:
		return "unknown endpoint"
	case Cycle:
		return "cycle"
	case SourceHasInbound:
		return "source has inbound edge"
	case SinkHasOutbound:
		return "sink has outbound edge"
	case TypeMismatch:
		return "type mismatch"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// GraphValidationError is returned by Builder.Build when the graph description
// is invalid. Vertices holds the minimal cycle vertex set for Kind == Cycle and
// is empty otherwise; other kinds identify the offender via NodeID or
// EdgeFrom/EdgeTo.
type GraphValidationError struct {
	Kind     ValidationKind
	NodeID   string
	EdgeFrom string
	EdgeTo   string
	Vertices []string
	Detail   string
}

func (e *GraphValidationError) Error() string {
	switch e.Kind {
	case Cycle:
		return fmt.Sprintf("graph validation: cycle through %v", e.Vertices)
	case DuplicateNodeID:
		return fmt.Sprintf("graph validation: duplicate node id %q", e.NodeID)
	case UnknownEndpoint:
		return fmt.Sprintf("graph validation: edge %s->%s refers to unknown node", e.EdgeFrom, e.EdgeTo)
	case SourceHasInbound:
		return fmt.Sprintf("graph validation: source node %q has inbound edges", e.NodeID)
	case SinkHasOutbound:
		return fmt.Sprintf("graph validation: sink node %q has outbound edges", e.NodeID)
	case TypeMismatch:
		return fmt.Sprintf("graph validation: type mismatch on edge %s->%s: %s", e.EdgeFrom, e.EdgeTo, e.Detail)
	default:
		return fmt.Sprintf("graph validation: %s", e.Kind)
	}
}

// NodeConstructionError is returned when the node factory cannot instantiate
// a node definition (no preconfigured instance and no registered constructor).
type NodeConstructionError struct {
	NodeID string
	Err    error
}

func (e *NodeConstructionError) Error() string {
	return fmt.Sprintf("construct node %q: %v", e.NodeID, e.Err)
}

func (e *NodeConstructionError) Unwrap() error { return e.Err }

// Decision is the outcome of a NodeErrorHandler for a single failed item.
type Decision int

const (
	// Skip drops the item and continues processing subsequent items.
	Skip Decision = iota
	// Retry re-invokes the node per the node's retry policy.
	Retry
	// Fail halts the run; runner.Result.Success becomes false.
	Fail
	// DeadLetter routes the item to the configured dead-letter sink.
	DeadLetter
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Retry:
		return "retry"
	case Fail:
		return "fail"
	case DeadLetter:
		return "dead-letter"
	default:
		return "unknown"
	}
}

// NodeExecutionError wraps the originating error from a node invocation along
// with routing metadata: which node, which attempt, and what the error
// handler ultimately decided.
type NodeExecutionError struct {
	NodeID   string
	Attempt  int
	Decision Decision
	Err      error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %q attempt %d (%s): %v", e.NodeID, e.Attempt, e.Decision, e.Err)
}

func (e *NodeExecutionError) Unwrap() error { return e.Err }

// ItemProcessingError carries the offending item so it can be routed to a
// dead-letter sink or reported on the pipeline result.
type ItemProcessingError struct {
	NodeID string
	Item   any
	Err    error
}

func (e *ItemProcessingError) Error() string {
	return fmt.Sprintf("node %q failed processing item: %v", e.NodeID, e.Err)
}

func (e *ItemProcessingError) Unwrap() error { return e.Err }

// CircuitOpenError is returned in place of invoking a node whose circuit
// breaker is in the Open state.
type CircuitOpenError struct {
	NodeID string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker open for node %q", e.NodeID)
}

// NodeTimeoutError is raised when a node-level operation timeout expires.
type NodeTimeoutError struct {
	NodeID string
}

func (e *NodeTimeoutError) Error() string {
	return fmt.Sprintf("node %q timed out", e.NodeID)
}

// MissingTimestampError is raised by an Aggregate node when an item yields
// no usable event time: it implements neither EventTimed nor the node's
// configured extractor.
type MissingTimestampError struct {
	NodeID string
}

func (e *MissingTimestampError) Error() string {
	return fmt.Sprintf("node %q: item has no usable event timestamp", e.NodeID)
}

// CancellationError distinguishes run cancellation from an item failure.
type CancellationError struct {
	NodeID string
}

func (e *CancellationError) Error() string {
	if e.NodeID == "" {
		return "run cancelled"
	}
	return fmt.Sprintf("node %q cancelled", e.NodeID)
}

// ConfigurationError reports an invalid option combination, e.g. a
// MaxDegreeOfParallelism below 2 with parallel execution enabled.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error on %s: %s", e.Field, e.Detail)
}

// UnsupportedStorageSchemeError is surfaced unchanged from a storage
// collaborator when a URI scheme has no registered provider.
type UnsupportedStorageSchemeError struct {
	Scheme string
}

func (e *UnsupportedStorageSchemeError) Error() string {
	return fmt.Sprintf("unsupported storage scheme %q", e.Scheme)
}

// StorageProviderNotFoundError is surfaced unchanged from a storage
// collaborator when no provider is registered for a scheme that looked
// otherwise valid.
type StorageProviderNotFoundError struct {
	Scheme string
}

func (e *StorageProviderNotFoundError) Error() string {
	return fmt.Sprintf("no storage provider registered for scheme %q", e.Scheme)
}
