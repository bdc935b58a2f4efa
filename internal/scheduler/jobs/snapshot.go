package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tradejournal/pkg/logger"
)

// SnapshotTaker persists reports for every journal (snapshot.Service)
type SnapshotTaker interface {
	TakeAll(ctx context.Context, asOf time.Time) (succeeded, failed int, err error)
}

// PatternSnapshotJob analyzes every user's journal daily
// ⭐ SSOT: 패턴/감정 스냅샷 스케줄은 이 Job에서만
type PatternSnapshotJob struct {
	snapshots SnapshotTaker
	schedule  string
	now       func() time.Time
	logger    *logger.Logger
}

// NewPatternSnapshotJob creates a new pattern snapshot job
func NewPatternSnapshotJob(snapshots SnapshotTaker, schedule string, log *logger.Logger) *PatternSnapshotJob {
	if schedule == "" {
		schedule = "0 30 2 * * *"
	}
	return &PatternSnapshotJob{
		snapshots: snapshots,
		schedule:  schedule,
		now:       time.Now,
		logger:    log.Component("jobs.snapshot"),
	}
}

// Name returns the job name
func (j *PatternSnapshotJob) Name() string {
	return "pattern_snapshot"
}

// Schedule returns the cron schedule (default 02:30 daily)
func (j *PatternSnapshotJob) Schedule() string {
	return j.schedule
}

// Run snapshots every user as of now.
// Individual user failures are logged; the run fails only when nobody succeeded.
func (j *PatternSnapshotJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled pattern snapshot")

	succeeded, failed, err := j.snapshots.TakeAll(ctx, j.now())
	if err != nil {
		return fmt.Errorf("take snapshots: %w", err)
	}
	if failed > 0 && succeeded == 0 {
		return fmt.Errorf("all %d snapshots failed", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"succeeded": succeeded,
		"failed":    failed,
	}).Info("Pattern snapshot completed")

	return nil
}
