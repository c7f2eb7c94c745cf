// Package dispatch builds job payloads for uploaded functions and enqueues
// them on the durable queue for a worker to pick up.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/warpfn/gateway/internal/core"
)

// Defaults applied when the function record does not pin its own limits.
const (
	DefaultTimeoutMs = 5000
	DefaultMemoryMb  = 256
)

// sqsAPI is the slice of the SQS client the dispatcher uses.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Dispatcher enqueues jobs to SQS. Retry and redelivery are the queue's
// responsibility; an enqueue failure here is fatal to the request.
type Dispatcher struct {
	client   sqsAPI
	queueURL string
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher publishing to the given queue URL.
func NewDispatcher(client *sqs.Client, queueURL string, logger *slog.Logger) *Dispatcher {
	return newDispatcher(client, queueURL, logger)
}

func newDispatcher(client sqsAPI, queueURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// Dispatch builds the canonical job payload for the function and enqueues it.
// Every dispatch mints a fresh requestId; the job is immutable once enqueued.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *core.FunctionRecord, input json.RawMessage) (*core.JobRequest, error) {
	job := &core.JobRequest{
		RequestID:  uuid.NewString(),
		FunctionID: rec.FunctionID,
		Runtime:    rec.Runtime,
		S3Bucket:   rec.S3Bucket,
		S3Key:      rec.S3Key,
		TimeoutMs:  rec.TimeoutMs,
		MemoryMb:   rec.MemoryMb,
		Input:      input,
	}
	if job.TimeoutMs <= 0 {
		job.TimeoutMs = DefaultTimeoutMs
	}
	if job.MemoryMb <= 0 {
		job.MemoryMb = DefaultMemoryMb
	}
	if len(job.Input) == 0 {
		job.Input = json.RawMessage("{}")
	}

	body, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	_, err = d.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(d.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue job %s: %w", job.RequestID, err)
	}

	d.logger.Info("job enqueued",
		"request_id", job.RequestID,
		"function_id", job.FunctionID,
		"runtime", job.Runtime,
	)
	return job, nil
}
