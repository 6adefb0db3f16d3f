// Package dlq implements dead-letter routing: the envelope format and sink
// contract an ErrorHandler's errs.DeadLetter decision is routed through.
package dlq

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// CorrelationSource is implemented by items that carry their own
// correlation id (e.g. a message read from a broker that already assigns
// one). When an item does not implement it, Envelope generates a fresh one.
type CorrelationSource interface {
	CorrelationID() string
}

// ConnectorMetadata is implemented by items that carry provider-specific
// metadata worth preserving in the envelope (partition, offset, headers).
type ConnectorMetadata interface {
	ConnectorMetadata() map[string]string
}

// Envelope is the record handed to a DeadLetterSink: the failed item boxed
// alongside enough context to diagnose and potentially replay it.
type Envelope struct {
	NodeID          string
	Item            any
	ExceptionType   string
	ExceptionDetail string
	Timestamp       time.Time
	CorrelationID   string
	ConnectorMeta   map[string]string
	// Attempt is the 1-based attempt count the error handler had reached
	// when it decided DeadLetter (§4.5).
	Attempt int
}

// NewEnvelope builds an Envelope for item failing at nodeID with cause err,
// having been tried attempt times before the error handler decided
// DeadLetter.
func NewEnvelope(nodeID string, item any, err error, attempt int) Envelope {
	env := Envelope{
		NodeID:          nodeID,
		Item:            item,
		ExceptionType:   exceptionType(err),
		ExceptionDetail: err.Error(),
		Timestamp:       time.Now(),
		CorrelationID:   uuid.NewString(),
		Attempt:         attempt,
	}
	if src, ok := item.(CorrelationSource); ok {
		if id := src.CorrelationID(); id != "" {
			env.CorrelationID = id
		}
	}
	if meta, ok := item.(ConnectorMetadata); ok {
		env.ConnectorMeta = meta.ConnectorMetadata()
	}
	return env
}

func exceptionType(err error) string {
	type typed interface{ Type() string }
	if t, ok := err.(typed); ok {
		return t.Type()
	}
	return reflect.TypeOf(err).String()
}

// Sink persists or forwards dead-lettered envelopes. Implementations must
// not block the calling node indefinitely; ctx carries the run's
// cancellation.
type Sink interface {
	Handle(ctx context.Context, env Envelope) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, env Envelope) error

// Handle implements Sink.
func (f SinkFunc) Handle(ctx context.Context, env Envelope) error { return f(ctx, env) }
