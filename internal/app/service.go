// Package service wires the run queue, the sandbox runner, the run archive
// and the live synchronization controller into the tournament service used
// by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/dilemma/internal/adapters/mq/queue"
	"github.com/okian/dilemma/internal/adapters/mq/worker"
	"github.com/okian/dilemma/internal/adapters/repository"
	"github.com/okian/dilemma/internal/domain/aggregate"
	"github.com/okian/dilemma/internal/domain/model"
	"github.com/okian/dilemma/internal/livesync"
	"github.com/okian/dilemma/internal/sandbox"
	"github.com/okian/dilemma/pkg/logger"
	"github.com/okian/dilemma/pkg/metrics"
)

const (
	defaultQueueSize = 16
	shutdownTimeout  = 5 * time.Second
)

// Runner executes one strategies document.
type Runner = worker.Runner

// Source is the editor buffer holding the local strategies document.
type Source interface {
	Current() (string, error)
	Set(code string) error
	Reset() (string, error)
}

// Service implements the API dependencies for the tournament.
type Service struct {
	mu sync.RWMutex

	// Core components
	runner Runner
	store  repository.Store
	source Source
	sync   *livesync.Controller
	queue  *queue.InMemoryQueue
	worker *worker.InMemoryWorker

	// Configuration
	queueSize  int
	iterations int
	runOnStart bool

	// State
	generation atomic.Uint64
	display    Display
	started    bool
	syncHooked bool
	cancel     context.CancelFunc
	onComplete []func(RunView)

	logger logger.Logger
}

// New constructs a Service. Without options it runs documents with a default
// sandbox engine and keeps runs in memory.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:  defaultQueueSize,
		iterations: sandbox.DefaultIterations,
		logger:     logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = sandbox.NewEngine(sandbox.WithIterations(s.iterations))
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.display.LastGood = aggregate.Compute(model.TournamentResult{}, s.iterations)
	return s
}

// OnRunComplete registers fn to be called after each current run is recorded.
func (s *Service) OnRunComplete(fn func(RunView)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = append(s.onComplete, fn)
}

// Start restores the last archived results, starts the runner and the
// synchronization controller.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting tournament service...")
	s.restore(ctx)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s.runner, s, s)
	go s.worker.Run(runCtx)

	if s.sync != nil && !s.syncHooked {
		s.syncHooked = true
		s.sync.OnChange(func(ctx context.Context, source string) {
			if _, err := s.RequestRun(ctx, model.ReasonSync, source); err != nil {
				s.logger.Warn(ctx, "merged source run rejected", logger.Error(err))
			}
		})
	}
	if s.sync != nil {
		s.sync.Start(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "tournament service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("iterations", s.iterations),
		logger.Bool("sync", s.sync != nil),
	)

	if s.runOnStart && s.source != nil {
		go func() {
			if _, err := s.RunSource(runCtx, model.ReasonStart); err != nil {
				s.logger.Warn(runCtx, "startup run rejected", logger.Error(err))
			}
		}()
	}
	return nil
}

// restore seeds the display from the archive. Must hold mu.
func (s *Service) restore(ctx context.Context) {
	if last, err := s.store.Latest(ctx); err == nil {
		s.display.LastRun = NewRunView(last)
		s.display.HasRun = true
		s.generation.Store(last.Generation)
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "failed to load last run", logger.Error(err))
	}
	if good, err := s.store.LatestGood(ctx); err == nil {
		s.setGood(good)
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "failed to load last good run", logger.Error(err))
	}
}

// Stop cancels the run in progress and shuts the components down.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	w, q, cancelRuns := s.worker, s.queue, s.cancel
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info(ctx, "stopping tournament service...")

	// the run in progress becomes stale and is not recorded
	s.generation.Add(1)
	if s.sync != nil {
		s.sync.Close()
	}
	if err := w.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "runner did not stop", logger.Error(err))
	}
	cancelRuns()
	_ = q.Close()
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "failed to close run archive", logger.Error(err))
	}

	s.logger.Info(ctx, "tournament service stopped")
}

// Current implements worker.Generations.
func (s *Service) Current() uint64 {
	return s.generation.Load()
}

// RequestRun schedules source for execution. Any older run still in progress
// is cancelled and its result will not be shown.
func (s *Service) RequestRun(ctx context.Context, reason, source string) (model.RunRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.RunRequest{}, ErrNotStarted
	}

	gen := s.generation.Add(1)
	metrics.UpdateRunGeneration(gen)
	s.worker.Supersede(gen)

	req := model.RunRequest{
		ID:          uuid.NewString(),
		Generation:  gen,
		Source:      source,
		Reason:      reason,
		RequestedAt: time.Now(),
	}
	if !s.queue.Enqueue(ctx, req) {
		if s.queue.IsClosed() {
			return model.RunRequest{}, queue.ErrClosed
		}
		return model.RunRequest{}, queue.ErrFull
	}
	s.logger.Debug(ctx, "run requested",
		logger.String("run", req.ID),
		logger.Uint64("generation", gen),
		logger.String("reason", reason),
	)
	return req, nil
}

// RunSource schedules the current editor source.
func (s *Service) RunSource(ctx context.Context, reason string) (model.RunRequest, error) {
	code, err := s.Source()
	if err != nil {
		return model.RunRequest{}, err
	}
	return s.RequestRun(ctx, reason, code)
}

// Complete implements worker.Sink: it archives the run and updates the display.
// A run superseded by a newer request is dropped; the check is repeated under
// mu because RequestRun bumps the generation while holding it.
func (s *Service) Complete(ctx context.Context, req model.RunRequest, o sandbox.Outcome) {
	if req.Generation != s.generation.Load() {
		s.dropStale(ctx, req)
		return
	}
	rec := repository.RunRecord{
		ID:         req.ID,
		Generation: req.Generation,
		Reason:     req.Reason,
		Source:     req.Source,
		Output:     o.Output,
		Outcome:    o.Kind(),
		Steps:      o.Steps,
		Duration:   o.Duration,
		Iterations: s.iterations,
		Result:     o.Result,
		CreatedAt:  time.Now().UTC(),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
		if o.Trace != "" {
			rec.Error = o.Trace
		}
	}
	if err := s.store.Save(ctx, rec); err != nil {
		metrics.RecordErrorByComponent("repository", "save")
		s.logger.Error(ctx, "failed to archive run", logger.String("run", rec.ID), logger.Error(err))
	}

	view := NewRunView(rec)
	s.mu.Lock()
	if req.Generation != s.generation.Load() {
		s.mu.Unlock()
		s.dropStale(ctx, req)
		return
	}
	s.display.LastRun = view
	s.display.HasRun = true
	if rec.OK() {
		s.setGood(rec)
	}
	hooks := append([]func(RunView){}, s.onComplete...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(view)
	}
}

func (s *Service) dropStale(ctx context.Context, req model.RunRequest) {
	metrics.RecordSupersededRun()
	s.logger.Debug(ctx, "superseded run not displayed",
		logger.String("run", req.ID),
		logger.Uint64("generation", req.Generation),
	)
}

// setGood replaces the displayed aggregates. Must hold mu.
func (s *Service) setGood(rec repository.RunRecord) {
	iterations := rec.Iterations
	if iterations <= 0 {
		iterations = s.iterations
	}
	s.display.LastGood = aggregate.Compute(rec.Result, iterations)
	s.display.GoodResult = rec.Result
	s.display.GoodRunID = rec.ID
}

// Display returns what the user currently sees.
func (s *Service) Display() Display {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display
}

// Runs returns up to limit archived runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]RunView, error) {
	recs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	views := make([]RunView, len(recs))
	for i, r := range recs {
		views[i] = NewRunView(r)
	}
	return views, nil
}

// Source returns the editor document.
func (s *Service) Source() (string, error) {
	if s.source == nil {
		return "", ErrNoSource
	}
	return s.source.Current()
}

// SetSource replaces the editor document and runs it.
func (s *Service) SetSource(ctx context.Context, code string) (model.RunRequest, error) {
	if s.source == nil {
		return model.RunRequest{}, ErrNoSource
	}
	if err := s.source.Set(code); err != nil {
		return model.RunRequest{}, fmt.Errorf("save source: %w", err)
	}
	return s.RunSource(ctx, model.ReasonManual)
}

// ResetSource restores the default document and runs it.
func (s *Service) ResetSource(ctx context.Context) (model.RunRequest, error) {
	if s.source == nil {
		return model.RunRequest{}, ErrNoSource
	}
	code, err := s.source.Reset()
	if err != nil {
		return model.RunRequest{}, fmt.Errorf("reset source: %w", err)
	}
	return s.RequestRun(ctx, model.ReasonReset, code)
}

// Sync returns the synchronization controller.
func (s *Service) Sync() (*livesync.Controller, error) {
	if s.sync == nil {
		return nil, ErrNoSync
	}
	return s.sync, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":    s.started,
		"generation": s.generation.Load(),
		"queueSize":  s.queueSize,
		"iterations": s.iterations,
		"players":    len(s.display.LastGood.Players),
		"games":      s.display.LastGood.Games,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	if s.display.HasRun {
		stats["lastOutcome"] = s.display.LastRun.Outcome
	}
	if s.sync != nil {
		stats["sync"] = s.sync.State().Status.String()
	}
	return stats
}
