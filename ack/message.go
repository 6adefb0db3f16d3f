// Package ack implements the message acknowledgment contract (§4.6):
// idempotent, at-most-once-effective acknowledgment, and the Manual,
// AutoOnSinkSuccess, Delayed and Batch acknowledgment strategies.
package ack

import (
	"context"
	"sync"
)

// ackState is the shared, reference-counted acknowledgment callback behind
// one logical message. WithBody creates a new AcknowledgableMessage with a
// different body type but the same ackState, so re-typing a message never
// duplicates or loses its acknowledgment.
type ackState struct {
	mu           sync.Mutex
	fn           func(ctx context.Context) error
	done         bool
	err          error
	acknowledged bool
}

func (s *ackState) acknowledge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return s.err
	}
	s.done = true
	s.acknowledged = true
	if s.fn != nil {
		s.err = s.fn(ctx)
	}
	return s.err
}

func (s *ackState) isAcknowledged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acknowledged
}

// AcknowledgableMessage wraps a body of type T with an idempotent
// acknowledgment callback and provider metadata (§4.6, §3's AcknowledgableMessage<T> row).
type AcknowledgableMessage[T any] struct {
	Body       T
	ProviderID string
	Metadata   map[string]string

	state *ackState
}

// New wraps body with an acknowledgment callback. ackFn may be nil for
// messages that do not originate from an acknowledgment-aware source, in
// which case Acknowledge is a no-op that still observes idempotency.
func New[T any](body T, providerID string, metadata map[string]string, ackFn func(ctx context.Context) error) *AcknowledgableMessage[T] {
	return &AcknowledgableMessage[T]{
		Body:       body,
		ProviderID: providerID,
		Metadata:   metadata,
		state:      &ackState{fn: ackFn},
	}
}

// Acknowledge invokes the underlying callback at most once; concurrent and
// repeated calls all observe the same result (invariant 5).
func (m *AcknowledgableMessage[T]) Acknowledge(ctx context.Context) error {
	return m.state.acknowledge(ctx)
}

// IsAcknowledged reports whether Acknowledge has been called, regardless of
// whether the callback itself succeeded.
func (m *AcknowledgableMessage[T]) IsAcknowledged() bool {
	return m.state.isAcknowledged()
}

// WithBody produces a new AcknowledgableMessage carrying body instead of
// m.Body, sharing m's acknowledgment state so the original provider message
// is still acknowledged exactly once regardless of how many times the
// payload has been transformed along the pipeline.
func WithBody[T, U any](m *AcknowledgableMessage[T], body U) *AcknowledgableMessage[U] {
	return &AcknowledgableMessage[U]{
		Body:       body,
		ProviderID: m.ProviderID,
		Metadata:   m.Metadata,
		state:      m.state,
	}
}
