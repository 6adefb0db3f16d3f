package node

import (
	"context"

	"github.com/flowlinego/flowline/errs"
)

// SourceOptions configures how a source node's production errors are
// handled when no node-level ErrorHandler is configured (resolves the first
// open question in §9: a node-level handler always takes precedence; these
// options are the fallback).
type SourceOptions struct {
	// ContinueOnError, when true, maps an unhandled source error to Skip
	// (the source's stream ends cleanly at that point instead of failing
	// the run; no further items are read from the source). When false
	// (the default), an unhandled source error maps to Fail.
	ContinueOnError bool
	// MessageErrorHandler, if set, is consulted before ContinueOnError and
	// may itself return false to force a Fail regardless of ContinueOnError.
	MessageErrorHandler func(err error) bool
}

// Resolve applies the open-question-1 fallback policy to an unhandled
// source production error.
func (o SourceOptions) Resolve(err error) errs.Decision {
	if o.MessageErrorHandler != nil {
		if o.MessageErrorHandler(err) {
			return errs.Skip
		}
		return errs.Fail
	}
	if o.ContinueOnError {
		return errs.Skip
	}
	return errs.Fail
}

// ErrorHandler decides how a single item failure at a node should be
// routed: skip the item, retry the node invocation, fail the whole run, or
// dead-letter the item. NodeID and Attempt are supplied by the runner so a
// single handler can apply node-specific policy across many nodes. When a
// node configures one, it always takes precedence over SourceOptions.
type ErrorHandler func(ctx context.Context, nodeID string, attempt int, err error) errs.Decision
