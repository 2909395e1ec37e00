package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/labstack/gommon/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoHandler = errors.New("no handler registered for job")

// Worker runs registered handlers for the jobs a Source hands out. Failed
// jobs go back to the retry backend until maxAttempts is reached.
type Worker struct {
	handlers    map[string]Handler
	retry       Backend
	maxAttempts int
	idleBackoff time.Duration
}

func NewWorker(retry Backend, maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Worker{
		handlers:    make(map[string]Handler),
		retry:       retry,
		maxAttempts: maxAttempts,
		idleBackoff: time.Second,
	}
}

func (w *Worker) Handle(key string, h Handler) {
	w.handlers[key] = h
}

// Keys lists the registered job keys in a stable order.
func (w *Worker) Keys() []string {
	keys := make([]string, 0, len(w.handlers))
	for k := range w.handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (w *Worker) Run(ctx context.Context, source Source) error {
	log.Infof("worker started for %v", w.Keys())
	defer log.Infof("worker stopped")

	for {
		job, err := source.Next(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Errorf("failed to read next job: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.idleBackoff):
			}
			continue
		}
		if job == nil {
			continue
		}

		if err := w.Process(ctx, job); err != nil {
			w.fail(ctx, job, err)
		}
	}
}

// Process runs the handler for job once.
func (w *Worker) Process(ctx context.Context, job *Job) error {
	handler, ok := w.handlers[job.Key]
	if !ok {
		return fmt.Errorf("%w %q", ErrNoHandler, job.Key)
	}

	ctx, span := otel.Tracer("queue").Start(job.Context(ctx), "queue.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("job.key", job.Key),
			attribute.String("job.id", job.ID),
			attribute.Int("job.attempts", job.Attempts),
		),
	)
	defer span.End()

	if err := handler(ctx, job); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (w *Worker) fail(ctx context.Context, job *Job, cause error) {
	job.Attempts++
	if job.Attempts < w.maxAttempts && w.retry != nil && !errors.Is(cause, ErrNoHandler) {
		log.Warnf("job %s (%s) failed, attempt %d/%d: %v", job.ID, job.Key, job.Attempts, w.maxAttempts, cause)
		if err := w.retry.Push(ctx, job); err != nil {
			log.Errorf("failed to requeue job %s (%s): %v", job.ID, job.Key, err)
		}
		return
	}

	log.Errorf("job %s (%s) gave up after %d attempts: %v", job.ID, job.Key, job.Attempts, cause)
	if dl, ok := w.retry.(DeadLetterer); ok {
		if err := dl.DeadLetter(ctx, job); err != nil {
			log.Errorf("failed to dead-letter job %s (%s): %v", job.ID, job.Key, err)
		}
	}
}

// InlineBackend runs jobs in the dispatcher goroutine instead of handing
// them to an external queue. Used when no broker is configured.
type InlineBackend struct {
	worker *Worker
}

func NewInlineBackend(worker *Worker) *InlineBackend {
	return &InlineBackend{worker: worker}
}

func (b *InlineBackend) Push(ctx context.Context, job *Job) error {
	for {
		err := b.worker.Process(ctx, job)
		if err == nil {
			return nil
		}
		job.Attempts++
		if job.Attempts >= b.worker.maxAttempts || errors.Is(err, ErrNoHandler) {
			return err
		}
		log.Warnf("inline job %s (%s) failed, attempt %d/%d: %v", job.ID, job.Key, job.Attempts, b.worker.maxAttempts, err)
	}
}
