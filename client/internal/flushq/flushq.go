// Package flushq provides a single-worker FIFO queue for the SDK's
// fire-and-forget calls (usage pings, log batches). Jobs run in submission
// order; failed jobs are retried with exponential backoff before the error
// is handed to the configured handler.
//
// Contract: callers must not rely on a job's result. Submit returns as soon
// as the job is queued; anything after that is observed, not propagated.
package flushq

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Job is a unit of work executed by the Executor.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job for JobFunc.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Config tunes the executor. Zero values fall back to defaults.
type Config struct {
	QueueSize      int
	EnqueueTimeout time.Duration
	MaxAttempts    int
	BaseBackoff    time.Duration
	MaxInterval    time.Duration

	// ErrorHandler receives errors from jobs that exhausted their retries.
	// May be nil.
	ErrorHandler func(error)
}

type queuedJob struct {
	ctx context.Context
	job Job
}

// Executor runs jobs one at a time in FIFO order.
type Executor struct {
	cfg   Config
	queue chan queuedJob

	done   chan struct{}
	closed uint32

	wg sync.WaitGroup
}

// New constructs the executor and starts its worker.
func New(cfg Config) *Executor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 100 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}

	e := &Executor{
		cfg:   cfg,
		queue: make(chan queuedJob, cfg.QueueSize),
		done:  make(chan struct{}),
	}
	e.wg.Add(1)
	go e.runWorker()
	return e
}

// Submit enqueues a job.
//
//   - Returns nil on success.
//   - Returns ErrExecutorClosed if the executor is stopped.
//   - Returns ErrQueueFull if the queue has no space after EnqueueTimeout.
//   - Returns ctx.Err() if the caller's context is cancelled first.
func (e *Executor) Submit(ctx context.Context, job Job) error {
	if atomic.LoadUint32(&e.closed) == 1 {
		return ErrExecutorClosed
	}
	select {
	case <-e.done:
		return ErrExecutorClosed
	default:
	}

	timer := time.NewTimer(e.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case e.queue <- queuedJob{ctx: ctx, job: job}:
		submissionsTotal.Inc()
		return nil
	case <-e.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.Inc()
		return ErrQueueFull
	}
}

// Barrier enqueues a no-op job and waits until it runs, guaranteeing every
// previously submitted job has completed.
func (e *Executor) Barrier(ctx context.Context) error {
	done := make(chan struct{})
	j := JobFunc(func(context.Context) error {
		close(done)
		return nil
	})
	if err := e.Submit(ctx, j); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop drains the queue and waits for the worker to exit. Idempotent.
func (e *Executor) Stop() {
	if !atomic.CompareAndSwapUint32(&e.closed, 0, 1) {
		return
	}
	close(e.done)
	e.wg.Wait()
}

func (e *Executor) runWorker() {
	defer e.wg.Done()

	for {
		select {
		case qj := <-e.queue:
			e.runJob(qj)
			queueDepth.Set(float64(len(e.queue)))
		case <-e.done:
			// Drain remaining jobs in FIFO order, one final attempt each.
			for {
				select {
				case qj := <-e.queue:
					if qj.job != nil {
						_ = qj.job.Run(qj.ctx)
					}
				default:
					queueDepth.Set(0)
					return
				}
			}
		}
	}
}

func (e *Executor) runJob(qj queuedJob) {
	if qj.job == nil {
		return
	}
	// A cancelled job must not stall the queue.
	if err := qj.ctx.Err(); err != nil {
		e.handleError(err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = e.cfg.MaxInterval
	exp.Reset()

	var err error
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		err = qj.job.Run(qj.ctx)
		runDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			return
		}
		if attempt == e.cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-time.After(exp.NextBackOff()):
		case <-e.done:
			e.handleError(err)
			return
		case <-qj.ctx.Done():
			e.handleError(qj.ctx.Err())
			return
		}
	}
	jobFailuresTotal.Inc()
	e.handleError(err)
}

func (e *Executor) handleError(err error) {
	if err == nil || e.cfg.ErrorHandler == nil {
		return
	}
	e.cfg.ErrorHandler(err)
}
