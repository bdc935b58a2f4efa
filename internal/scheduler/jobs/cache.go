package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/tradejournal/pkg/logger"
)

// ReportCache drops cached reports (redis.Cache)
type ReportCache interface {
	DeleteStaleReports(ctx context.Context, configHash string) (int, error)
}

// ReportCachePurgeJob removes reports cached under an older thresholds hash
type ReportCachePurgeJob struct {
	cache      ReportCache
	configHash string
	logger     *logger.Logger
}

// NewReportCachePurgeJob creates a new report cache purge job
func NewReportCachePurgeJob(cache ReportCache, configHash string, log *logger.Logger) *ReportCachePurgeJob {
	return &ReportCachePurgeJob{
		cache:      cache,
		configHash: configHash,
		logger:     log.Component("jobs.cache"),
	}
}

// Name returns the job name
func (j *ReportCachePurgeJob) Name() string {
	return "report_cache_purge"
}

// Schedule returns the cron schedule (hourly)
func (j *ReportCachePurgeJob) Schedule() string {
	return "0 0 * * * *"
}

// Run executes the purge
func (j *ReportCachePurgeJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting report cache purge")

	count, err := j.cache.DeleteStaleReports(ctx, j.configHash)
	if err != nil {
		return fmt.Errorf("purge reports: %w", err)
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Report cache purge completed")
	}

	return nil
}
