package core

import (
	"context"
	"encoding/json"
	"io"
)

// JobDispatcher defines the contract for handing a run request off to the
// durable queue. This interface decouples the HTTP handlers from the queue
// implementation.
type JobDispatcher interface {
	// Dispatch builds the canonical job payload for the given function and
	// enqueues it. It returns the enqueued JobRequest, whose RequestID is the
	// correlation id for the eventual result. An enqueue failure is fatal to
	// the request and is not retried at this layer.
	Dispatch(ctx context.Context, rec *FunctionRecord, input json.RawMessage) (*JobRequest, error)
}

// ResultWaiter blocks until the worker publishes a result correlated to the
// given requestId, or a deadline passes.
type ResultWaiter interface {
	// Wait never returns an error: every terminal state (worker reply,
	// timeout, subscription failure) is encoded in the returned message.
	Wait(ctx context.Context, requestID string) *ResultMessage
}

// MetadataStore persists and resolves function records.
type MetadataStore interface {
	Put(ctx context.Context, rec *FunctionRecord) error
	// Get returns ErrFunctionNotFound when no record exists for the id.
	Get(ctx context.Context, functionID string) (*FunctionRecord, error)
}

// BlobStore persists uploaded function code.
type BlobStore interface {
	// Put stores the blob under key and returns the bucket it landed in.
	Put(ctx context.Context, key string, body io.Reader) (bucket string, err error)
}
