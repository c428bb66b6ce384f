// Package worker persists committed events taken off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rinkline/internal/domain/model"
	"github.com/okian/rinkline/pkg/logger"
	"github.com/okian/rinkline/pkg/metrics"
)

const (
	defaultRetries    = 3
	defaultBackoff    = 50 * time.Millisecond
	drainTimeout      = 30 * time.Second
	defaultPoolWorker = 1
)

// Saver stores an event.
type Saver interface {
	Save(ctx context.Context, ev model.Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Next(ctx context.Context) (model.Event, bool)
}

// FailureHandler is called once an event exhausted its retries.
type FailureHandler func(ctx context.Context, ev model.Event, err error)

// Worker drains the queue into the store.
type Worker struct {
	queue     Queue
	saver     Saver
	name      string
	retries   int
	backoff   time.Duration
	onFailure FailureHandler

	processed *atomic.Int64
	failed    *atomic.Int64

	logger logger.Logger
}

// NewWorker creates a worker reading from q and writing to s.
func NewWorker(q Queue, s Saver, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		saver:     s,
		name:      "worker",
		retries:   defaultRetries,
		backoff:   defaultBackoff,
		processed: new(atomic.Int64),
		failed:    new(atomic.Int64),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run persists events until the queue drains after Close, or ctx is done.
func (w *Worker) Run(ctx context.Context) {
	for {
		ev, ok := w.queue.Next(ctx)
		if !ok {
			return
		}
		if err := w.process(ctx, ev); err != nil {
			w.logger.Error(ctx, "event not persisted",
				logger.String("event_key", ev.EventKey),
				logger.String("game_id", ev.GameID),
				logger.Error(err),
			)
			if w.onFailure != nil {
				w.onFailure(ctx, ev, err)
			}
		}
	}
}

// process saves one event, retrying with linear backoff.
func (w *Worker) process(ctx context.Context, ev model.Event) error { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("persist %s: %w", ev.EventKey, ctx.Err())
			case <-time.After(time.Duration(attempt) * w.backoff):
			}
			w.logger.Debug(ctx, "retrying save", logger.String("event_key", ev.EventKey), logger.Int("attempt", attempt))
		}
		if err = w.saver.Save(ctx, ev); err == nil {
			w.processed.Add(1)
			return nil
		}
	}

	w.failed.Add(1)
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "save_failed")
	return fmt.Errorf("persist %s after %d attempts: %w", ev.EventKey, w.retries+1, err)
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue

	processed atomic.Int64
	failed    atomic.Int64

	wg      sync.WaitGroup
	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing q and s.
// A count below 1 uses runtime.NumCPU.
func NewPool(workerCount int, q Queue, s Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = max(runtime.NumCPU(), defaultPoolWorker)
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewWorker(q, s, workerOpts...)
		w.processed = &p.processed
		w.failed = &p.failed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker. Calling it twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, when it can be closed, and waits for the
// workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "worker pool drain timed out")
		return fmt.Errorf("drain workers: %w", ctx.Err())
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many events were persisted.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns how many events were dropped after retries.
func (p *Pool) Failed() int64 { return p.failed.Load() }
