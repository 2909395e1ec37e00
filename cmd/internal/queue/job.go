package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Job is the envelope every backend stores. Payload is owned by the job kind.
type Job struct {
	ID         string            `json:"id"`
	Key        string            `json:"key"`
	Payload    json.RawMessage   `json:"payload"`
	Attempts   int               `json:"attempts"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	Trace      map[string]string `json:"trace,omitempty"`
}

// Backend accepts jobs for later processing.
type Backend interface {
	Push(ctx context.Context, job *Job) error
}

// Source hands out jobs to a worker. Next returns (nil, nil) when it timed
// out without a job.
type Source interface {
	Next(ctx context.Context) (*Job, error)
}

// DeadLetterer parks jobs that ran out of attempts.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, job *Job) error
}

type Handler func(ctx context.Context, job *Job) error

func NewJob(ctx context.Context, key string, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", key, err)
	}

	job := &Job{
		ID:         uuid.NewString(),
		Key:        key,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
		Trace:      map[string]string{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(job.Trace))
	return job, nil
}

// Context restores the trace context the job was enqueued under.
func (j *Job) Context(ctx context.Context) context.Context {
	if len(j.Trace) == 0 {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(j.Trace))
}

func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Key, err)
	}
	return nil
}
