package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/showcase-api/internal/repository"
	"github.com/jwalitptl/showcase-api/pkg/logger"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
)

// DefaultCleanupSchedule runs the purge once a day at midnight.
const DefaultCleanupSchedule = "@daily"

// OutboxCleanupWorker purges delivered outbox events once they are older than
// the retention window. Pending and failed events are never touched.
type OutboxCleanupWorker struct {
	repo      repository.OutboxRepository
	retention time.Duration
	schedule  string
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention time.Duration, schedule string, log *logger.Logger, m *metrics.Metrics) (*OutboxCleanupWorker, error) {
	if retention <= 0 {
		return nil, errors.New("retention must be greater than 0")
	}
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OutboxCleanupWorker{
		repo:      repo,
		retention: retention,
		schedule:  schedule,
		logger:    log.With("component", "outbox-cleanup"),
		metrics:   m,
		now:       time.Now,
	}, nil
}

// Start runs the purge on schedule until ctx is cancelled, then waits for a
// running purge to finish.
func (w *OutboxCleanupWorker) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() {
		if _, err := w.Cleanup(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error(err, "Outbox cleanup failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule outbox cleanup: %w", err)
	}

	w.logger.Info("Starting outbox cleanup", "schedule", w.schedule, "retention", w.retention.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("Outbox cleanup stopped")
	return nil
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	w.metrics.OutboxPurged(rows)
	if rows > 0 {
		w.logger.Info("Cleaned up outbox events", "count", rows, "cutoff", cutoff)
	}
	return rows, nil
}
