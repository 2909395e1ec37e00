package queue

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/gommon/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrQueueFull = errors.New("job queue is full")

const flushTimeout = 5 * time.Second

// Dispatcher decouples callers from the backend: Enqueue only places the
// job on a buffered channel and Run forwards it.
type Dispatcher struct {
	backend Backend
	jobs    chan *Job
}

func NewDispatcher(backend Backend, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{backend: backend, jobs: make(chan *Job, buffer)}
}

// Enqueue never blocks. A full buffer is reported as ErrQueueFull.
func (d *Dispatcher) Enqueue(ctx context.Context, key string, payload any) error {
	job, err := NewJob(ctx, key, payload)
	if err != nil {
		return err
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run forwards jobs until ctx is done, then flushes whatever is still
// buffered.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Infof("job dispatcher started")
	defer log.Infof("job dispatcher stopped")

	for {
		select {
		case <-ctx.Done():
			d.flush()
			return
		case job := <-d.jobs:
			d.push(ctx, job)
		}
	}
}

func (d *Dispatcher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for {
		select {
		case job := <-d.jobs:
			d.push(ctx, job)
		default:
			return
		}
	}
}

func (d *Dispatcher) push(ctx context.Context, job *Job) {
	ctx, span := otel.Tracer("queue").Start(job.Context(ctx), "queue.push",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("job.key", job.Key),
			attribute.String("job.id", job.ID),
		),
	)
	defer span.End()

	if err := d.backend.Push(ctx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("failed to push job %s (%s): %v", job.ID, job.Key, err)
	}
}
