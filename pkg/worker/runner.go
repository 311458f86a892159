package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
)

// Worker is a unit of background work executed by a runner
type Worker interface {
	// Name returns worker name for logging
	Name() string
	// Run executes one iteration of work
	Run(ctx context.Context) error
}

// Func adapts a plain function to the Worker interface
type Func struct {
	WorkerName string
	Fn         func(ctx context.Context) error
}

// Name returns the worker name
func (f Func) Name() string { return f.WorkerName }

// Run calls the wrapped function
func (f Func) Run(ctx context.Context) error { return f.Fn(ctx) }

// PeriodicWorker runs a Worker on a fixed interval until its context is cancelled
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	wg       sync.WaitGroup
	name     string
	log      *zap.Logger
}

// NewPeriodicWorker creates new periodic worker
func NewPeriodicWorker(worker Worker, interval time.Duration) *PeriodicWorker {
	return &PeriodicWorker{
		worker:   worker,
		interval: interval,
		name:     worker.Name(),
		log:      logger.Named("worker").With(zap.String("worker", worker.Name())),
	}
}

// Start launches the loop in its own goroutine
func (pw *PeriodicWorker) Start(ctx context.Context) {
	pw.wg.Add(1)
	go pw.run(ctx)
}

// Stop waits for the loop to exit, giving up after timeout.
// It reports whether the worker exited in time.
func (pw *PeriodicWorker) Stop(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		pw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		pw.log.Info("worker stopped")
		return true
	case <-time.After(timeout):
		pw.log.Warn("worker stop timeout", zap.Duration("timeout", timeout))
		return false
	}
}

func (pw *PeriodicWorker) run(ctx context.Context) {
	defer pw.wg.Done()

	pw.log.Info("worker started", zap.Duration("interval", pw.interval))

	// Run immediately on start
	pw.runOnce(ctx)

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pw.log.Info("worker stopping")
			return
		case <-ticker.C:
			pw.runOnce(ctx)
		}
	}
}

// runOnce executes one iteration; errors and panics are logged and never stop the loop
func (pw *PeriodicWorker) runOnce(ctx context.Context) {
	execute(ctx, pw.worker, pw.log)
}

func execute(ctx context.Context, w Worker, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("worker panicked", zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if err := w.Run(ctx); err != nil {
		log.Error("worker execution failed", zap.Error(err))
		return
	}
	log.Debug("worker iteration done", zap.Duration("took", time.Since(start)))
}

// Runner is a started-and-stopped background loop
type Runner interface {
	Start(ctx context.Context)
	Stop(timeout time.Duration) bool
}

// Group manages several runners sharing one lifecycle
type Group struct {
	workers []Runner
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
}

// NewGroup creates new worker group
func NewGroup(ctx context.Context) *Group {
	ctx, cancel := context.WithCancel(ctx)
	return &Group{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a worker run every interval
func (g *Group) Add(worker Worker, interval time.Duration) {
	g.AddRunner(NewPeriodicWorker(worker, interval))
}

// AddCron registers a worker run on a cron schedule
func (g *Group) AddCron(worker Worker, spec string) error {
	cw, err := NewCronWorker(worker, spec)
	if err != nil {
		return err
	}
	g.AddRunner(cw)
	return nil
}

// AddRunner registers any runner with the group
func (g *Group) AddRunner(r Runner) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.workers = append(g.workers, r)
}

// Start starts all workers
func (g *Group) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, w := range g.workers {
		w.Start(g.ctx)
	}

	logger.Info("worker group started", zap.Int("workers", len(g.workers)))
}

// Stop cancels the shared context and waits for every worker
func (g *Group) Stop(timeout time.Duration) {
	g.cancel()

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, w := range g.workers {
		w.Stop(timeout)
	}

	logger.Info("worker group stopped", zap.Int("workers", len(g.workers)))
}
