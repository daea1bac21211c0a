package scheduler

import (
	"context"
	"fmt"
	"time"

	"crypto-price-service/internal/metrics"
	"crypto-price-service/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// UniverseFetcher is the slice of the provider capability the job needs.
type UniverseFetcher interface {
	Name() string
	FetchUniverse(ctx context.Context, size int) ([]model.Listing, error)
}

// SnapshotStore persists one refresh cycle atomically.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, listings []model.Listing) error
}

// RefreshJob re-pulls the full top-N listing on a fixed schedule and persists
// it, independent of inbound request traffic. Failures are logged and
// swallowed at this boundary; they never reach a caller or crash the process.
type RefreshJob struct {
	provider UniverseFetcher
	store    SnapshotStore
	cron     *cron.Cron
	size     int
	interval time.Duration
	logger   *logrus.Logger
}

// NewRefreshJob creates the background refresh job
func NewRefreshJob(provider UniverseFetcher, store SnapshotStore, size int, interval time.Duration, logger *logrus.Logger) *RefreshJob {
	return &RefreshJob{
		provider: provider,
		store:    store,
		cron:     cron.New(),
		size:     size,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the job and runs one immediate cycle to warm the store.
func (j *RefreshJob) Start(ctx context.Context) error {
	j.logger.WithFields(logrus.Fields{
		"interval":      j.interval.String(),
		"universe_size": j.size,
		"provider":      j.provider.Name(),
	}).Info("Starting background refresh job")

	_, err := j.cron.AddFunc(fmt.Sprintf("@every %s", j.interval), func() {
		j.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}

	j.cron.Start()

	// Initial warm-up cycle so the store serves from minute zero.
	go j.RunCycle(ctx)

	return nil
}

// Stop stops the scheduler; a cycle already running completes.
func (j *RefreshJob) Stop() {
	j.logger.Info("Stopping background refresh job")
	j.cron.Stop()
}

// RunCycle executes one refresh cycle. All errors terminate the cycle, roll
// back its transaction and are only logged.
func (j *RefreshJob) RunCycle(ctx context.Context) {
	start := time.Now()

	listings, err := j.provider.FetchUniverse(ctx, j.size)
	if err != nil {
		metrics.RecordRefreshCycle("error", time.Since(start))
		j.logger.WithError(err).Error("Refresh cycle failed to fetch universe")
		return
	}

	if err := j.store.SaveSnapshot(ctx, listings); err != nil {
		metrics.RecordRefreshCycle("error", time.Since(start))
		j.logger.WithError(err).Error("Refresh cycle failed to persist snapshot")
		return
	}

	metrics.RecordRefreshCycle("success", time.Since(start))
	j.logger.WithFields(logrus.Fields{
		"entries":     len(listings),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Refresh cycle completed successfully")
}
