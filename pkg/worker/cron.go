package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
)

// CronWorker runs a Worker on a cron schedule (standard five-field spec).
// A firing is skipped while the previous run is still in progress.
type CronWorker struct {
	worker Worker
	spec   string
	cron   *cron.Cron
	log    *zap.Logger
}

// NewCronWorker validates spec and creates new cron worker
func NewCronWorker(worker Worker, spec string) (*CronWorker, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q for %s: %w", spec, worker.Name(), err)
	}

	return &CronWorker{
		worker: worker,
		spec:   spec,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:    logger.Named("worker").With(zap.String("worker", worker.Name())),
	}, nil
}

// Start schedules the worker; runs use ctx and stop firing once it is cancelled
func (cw *CronWorker) Start(ctx context.Context) {
	_, err := cw.cron.AddFunc(cw.spec, func() {
		if ctx.Err() != nil {
			return
		}
		execute(ctx, cw.worker, cw.log)
	})
	if err != nil {
		cw.log.Error("failed to schedule worker", zap.Error(err))
		return
	}

	cw.cron.Start()
	cw.log.Info("worker scheduled", zap.String("schedule", cw.spec))
}

// Stop stops the scheduler and waits for a running job, giving up after timeout
func (cw *CronWorker) Stop(timeout time.Duration) bool {
	stopped := cw.cron.Stop()

	select {
	case <-stopped.Done():
		cw.log.Info("worker stopped")
		return true
	case <-time.After(timeout):
		cw.log.Warn("worker stop timeout", zap.Duration("timeout", timeout))
		return false
	}
}

// Next returns the next scheduled run after t
func (cw *CronWorker) Next(t time.Time) time.Time {
	sched, err := cron.ParseStandard(cw.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t)
}
