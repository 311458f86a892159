package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/pkg/logger"
)

// RunLock guards a job so that only one process runs it at a time
type RunLock interface {
	// TryAcquire returns false without error when another holder has the lock
	TryAcquire(ctx context.Context) (bool, error)
	// Release releases the lock if held
	Release(ctx context.Context) error
}

// lockManager is the subset of redlock.RedLock used here
type lockManager interface {
	Lock(ctx context.Context, resource string, ttl time.Duration) (time.Duration, error)
	UnLock(ctx context.Context, resource string) error
}

// DistributedLock is a RunLock implemented with the Redlock algorithm.
// The TTL must exceed the longest expected run; the lock is not renewed.
type DistributedLock struct {
	manager  lockManager
	lockName string
	ttl      time.Duration

	mu     sync.Mutex
	locked bool
}

// NewDistributedLock creates new distributed lock
func NewDistributedLock(manager lockManager, name string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		manager:  manager,
		lockName: fmt.Sprintf("rally-radar:lock:%s", name),
		ttl:      ttl,
	}
}

// TryAcquire attempts to acquire the lock
func (dl *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	expiry, err := dl.manager.Lock(ctx, dl.lockName, dl.ttl)
	if err != nil {
		// Lock not acquired - another process has it
		logger.Debug("run lock held elsewhere",
			zap.String("lock_name", dl.lockName),
			zap.Error(err),
		)
		return false, nil
	}

	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	dl.locked = true

	logger.Debug("run lock acquired",
		zap.String("lock_name", dl.lockName),
		zap.Duration("expiry", expiry),
	)

	return true, nil
}

// Release releases the lock. A lock that already expired is not an error.
func (dl *DistributedLock) Release(ctx context.Context) error {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if !dl.locked {
		return nil
	}
	dl.locked = false

	if err := dl.manager.UnLock(ctx, dl.lockName); err != nil {
		logger.Warn("failed to release lock (may have already expired)",
			zap.String("lock_name", dl.lockName),
			zap.Error(err),
		)
	}
	return nil
}

// NoopLock always acquires; used when Redis is disabled
type NoopLock struct{}

// TryAcquire always succeeds
func (NoopLock) TryAcquire(context.Context) (bool, error) { return true, nil }

// Release does nothing
func (NoopLock) Release(context.Context) error { return nil }
