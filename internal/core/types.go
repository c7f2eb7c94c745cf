// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"encoding/json"
	"time"
)

// Result statuses reported back to clients and published by workers.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
	StatusTimeout = "TIMEOUT"
)

// JobRequest is the canonical payload enqueued for a worker. It is built once
// by the dispatcher and never mutated after it has been enqueued; from that
// point on the queue (and, transitively, the worker) owns it.
type JobRequest struct {
	RequestID  string          `json:"requestId"`
	FunctionID string          `json:"functionId"`
	Runtime    string          `json:"runtime"`
	S3Bucket   string          `json:"s3Bucket"`
	S3Key      string          `json:"s3Key"`
	TimeoutMs  int             `json:"timeoutMs"`
	MemoryMb   int             `json:"memoryMb"`
	Input      json.RawMessage `json:"input"`
}

// ResultMessage is the terminal outcome of a run request. Exactly one is
// produced per requestId, whether the worker replied, the wait timed out, or
// the subscription could not be established.
//
// When the worker reply was valid JSON, Payload carries it verbatim and is
// served as the response body unchanged. Otherwise Status and Message describe
// the synthetic outcome.
type ResultMessage struct {
	Status  string          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"-"`
}

// Body returns the JSON bytes to serve for this result. A structured worker
// payload passes through untouched; synthetic outcomes are marshaled from the
// status and message fields.
func (m *ResultMessage) Body() []byte {
	if len(m.Payload) > 0 {
		return m.Payload
	}
	b, err := json.Marshal(m)
	if err != nil {
		return []byte(`{"status":"ERROR","message":"failed to encode result"}`)
	}
	return b
}

// FunctionRecord is the metadata stored for an uploaded function. It resolves
// a function identifier to its runtime and code location.
type FunctionRecord struct {
	FunctionID  string    `json:"functionId" dynamodbav:"functionId"`
	Runtime     string    `json:"runtime" dynamodbav:"runtime"`
	S3Bucket    string    `json:"s3Bucket" dynamodbav:"s3Bucket"`
	S3Key       string    `json:"s3Key" dynamodbav:"s3Key"`
	Description string    `json:"description,omitempty" dynamodbav:"description"`
	TimeoutMs   int       `json:"timeoutMs,omitempty" dynamodbav:"timeoutMs"`
	MemoryMb    int       `json:"memoryMb,omitempty" dynamodbav:"memoryMb"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"createdAt"`
}
