package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/pkg/logger"
)

// Worker is one unit of scheduled background work.
type Worker interface {
	// Name identifies the worker in logs.
	Name() string
	// Run executes a single sweep. Errors are logged, never fatal.
	Run(ctx context.Context) error
}

// PeriodicWorker drives a Worker on a fixed interval until its context is
// cancelled. The first sweep runs immediately on start.
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	wg       *sync.WaitGroup
	name     string
}

// NewPeriodicWorker wraps a worker with interval scheduling.
func NewPeriodicWorker(worker Worker, interval time.Duration) *PeriodicWorker {
	return &PeriodicWorker{
		worker:   worker,
		interval: interval,
		wg:       &sync.WaitGroup{},
		name:     worker.Name(),
	}
}

// Start launches the scheduling loop.
func (pw *PeriodicWorker) Start(ctx context.Context) {
	pw.wg.Add(1)
	go pw.run(ctx)
}

// Stop waits for the loop to drain, up to timeout.
func (pw *PeriodicWorker) Stop(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("✅ Worker stopped",
			zap.String("worker", pw.name),
		)
	case <-time.After(timeout):
		logger.Warn("⚠️ Worker stop timed out",
			zap.String("worker", pw.name),
		)
	}
}

func (pw *PeriodicWorker) run(ctx context.Context) {
	defer pw.wg.Done()

	logger.Info("🚀 Worker started",
		zap.String("worker", pw.name),
		zap.Duration("interval", pw.interval),
	)

	pw.sweep(ctx)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("🛑 Worker stopping",
				zap.String("worker", pw.name),
			)
			return

		case <-ticker.C:
			pw.sweep(ctx)
		}
	}
}

// sweep runs one iteration. A failed sweep is logged and the schedule
// continues.
func (pw *PeriodicWorker) sweep(ctx context.Context) {
	if err := pw.worker.Run(ctx); err != nil {
		logger.Error("worker sweep failed",
			zap.String("worker", pw.name),
			zap.Error(err),
		)
	}
}

// WorkerGroup starts and stops a set of periodic workers together.
type WorkerGroup struct {
	workers []*PeriodicWorker
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewWorkerGroup creates an empty group bound to ctx.
func NewWorkerGroup(ctx context.Context) *WorkerGroup {
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerGroup{
		workers: make([]*PeriodicWorker, 0),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a worker with its interval. Call before Start.
func (wg *WorkerGroup) Add(worker Worker, interval time.Duration) {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	wg.workers = append(wg.workers, NewPeriodicWorker(worker, interval))
}

// Start launches every registered worker.
func (wg *WorkerGroup) Start() {
	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, worker := range wg.workers {
		worker.Start(wg.ctx)
	}

	logger.Info("🚀 Worker group started",
		zap.Int("workers", len(wg.workers)),
	)
}

// Stop cancels the group context and waits for each worker to drain.
func (wg *WorkerGroup) Stop(timeout time.Duration) {
	logger.Info("🛑 Stopping worker group...",
		zap.Int("workers", len(wg.workers)),
	)

	wg.cancel()

	wg.mu.Lock()
	defer wg.mu.Unlock()

	for _, worker := range wg.workers {
		worker.Stop(timeout)
	}

	logger.Info("✅ Worker group stopped")
}
