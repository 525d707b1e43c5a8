package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pantrylab/pantry-core/internal/core/ports/driven"
	"github.com/pantrylab/pantry-core/internal/metrics"
)

const retentionLockName = "query-log-retention"

// DefaultQueryLogRetention keeps query logs twice as long as the longest proposal window.
const DefaultQueryLogRetention = 60 * 24 * time.Hour

// RetentionJob periodically purges search query logs older than the
// retention period.
//
// For multi-instance deployments, configure a DistributedLock so that
// only one instance purges per cycle.
type RetentionJob struct {
	store  driven.QueryLogStore
	lock   driven.DistributedLock
	clock  driven.Clock
	logger *slog.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
	maxAge   time.Duration
	lockTTL  time.Duration
}

// RetentionConfig holds configuration for the retention job.
type RetentionConfig struct {
	Store    driven.QueryLogStore
	Lock     driven.DistributedLock // Optional
	Clock    driven.Clock
	Logger   *slog.Logger
	Interval time.Duration // How often to purge (default: 1h)
	MaxAge   time.Duration // Logs older than this are removed (default: 60 days)
	LockTTL  time.Duration // TTL for the distributed lock (default: 5m)
}

// NewRetentionJob creates a new retention job.
func NewRetentionJob(cfg RetentionConfig) *RetentionJob {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = driven.SystemClock
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = time.Hour
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = DefaultQueryLogRetention
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 5 * time.Minute
	}

	return &RetentionJob{
		store:    cfg.Store,
		lock:     cfg.Lock,
		clock:    clock,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
		lockTTL:  lockTTL,
	}
}

// Start begins the purge loop. It runs until Stop is called or ctx is cancelled.
func (j *RetentionJob) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	j.logger.Info("query log retention starting", "interval", j.interval, "max_age", j.maxAge)

	go j.run(ctx)
}

// Stop gracefully stops the job and waits for the current cycle.
func (j *RetentionJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	j.mu.Unlock()

	<-j.doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()

	j.logger.Info("query log retention stopped")
}

func (j *RetentionJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single purge cycle and returns the number of rows removed.
// The cycle is skipped when another instance holds the lock.
func (j *RetentionJob) RunOnce(ctx context.Context) int64 {
	if j.lock != nil {
		acquired, err := j.lock.Acquire(ctx, retentionLockName, j.lockTTL)
		if err != nil {
			j.logger.Warn("failed to acquire retention lock", "error", err)
			return 0
		}
		if !acquired {
			j.logger.Debug("retention lock held by another instance, skipping cycle")
			return 0
		}
		defer func() {
			if err := j.lock.Release(ctx, retentionLockName); err != nil {
				j.logger.Warn("failed to release retention lock", "error", err)
			}
		}()
	}

	cutoff := j.clock().Add(-j.maxAge)
	removed, err := j.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("failed to purge query logs", "cutoff", cutoff, "error", err)
		return 0
	}

	metrics.QueryLogsPurged.Add(float64(removed))
	if removed > 0 {
		j.logger.Info("purged query logs", "removed", removed, "cutoff", cutoff)
	}
	return removed
}
