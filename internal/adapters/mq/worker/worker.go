// Package worker executes queued run requests one at a time.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/dilemma/internal/adapters/mq/queue"
	"github.com/okian/dilemma/internal/sandbox"
	"github.com/okian/dilemma/pkg/logger"
	"github.com/okian/dilemma/pkg/metrics"
)

// Request abstracts what the worker reads off the queue.
type Request = queue.Request

// Runner executes one strategies document.
type Runner interface {
	Run(ctx context.Context, source string) sandbox.Outcome
}

// Generations reports the latest requested run generation.
type Generations interface {
	Current() uint64
}

// Sink receives outcomes of runs that are still current when they finish.
type Sink interface {
	Complete(ctx context.Context, req Request, o sandbox.Outcome)
}

// Queue defines how the worker receives requests.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Request
}

// Worker processes requests until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the request in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker runs requests sequentially so two runs never overlap.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	gens   Generations
	sink   Sink
	name   string

	mu        sync.Mutex
	activeGen uint64
	cancel    context.CancelFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, gens Generations, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		gens:     gens,
		sink:     sink,
		name:     "runner",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("runner"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			w.process(ctx, req)
		}
	}
}

// Supersede cancels the run in progress if it is older than gen.
func (w *InMemoryWorker) Supersede(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil && w.activeGen < gen {
		w.cancel()
	}
}

// Shutdown stops the worker and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	w.Supersede(^uint64(0))

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, req Request) {
	if req.Generation < w.gens.Current() {
		metrics.RecordSupersededRun()
		w.logger.Debug(ctx, "skipping stale run",
			logger.String("run", req.ID),
			logger.Uint64("generation", req.Generation),
		)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.activeGen = req.Generation
	w.cancel = cancel
	w.mu.Unlock()

	o := w.runner.Run(runCtx, req.Source)

	w.mu.Lock()
	w.cancel = nil
	w.mu.Unlock()
	cancel()

	if req.Generation != w.gens.Current() {
		metrics.RecordSupersededRun()
		w.logger.Info(ctx, "dropping superseded run",
			logger.String("run", req.ID),
			logger.Uint64("generation", req.Generation),
			logger.Uint64("latest", w.gens.Current()),
		)
		return
	}

	metrics.RecordRun(o.Kind(), o.Duration, o.Steps)
	if o.Err != nil {
		metrics.RecordErrorByComponent("sandbox", o.Kind())
		w.logger.Info(ctx, "run failed",
			logger.String("run", req.ID),
			logger.String("outcome", o.Kind()),
			logger.Int("games", o.Result.Len()),
			logger.Error(o.Err),
		)
	} else {
		w.logger.Info(ctx, "run finished",
			logger.String("run", req.ID),
			logger.Int("games", o.Result.Len()),
			logger.Uint64("steps", o.Steps),
			logger.Duration("duration", o.Duration),
		)
	}
	w.sink.Complete(ctx, req, o)
}
