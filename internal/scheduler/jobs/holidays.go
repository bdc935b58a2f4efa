package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/notify"
	"github.com/wonny/tradejournal/pkg/logger"
	"github.com/wonny/tradejournal/pkg/redis"
)

// HolidayFetcher loads a year's holidays (calendar.Fetcher)
type HolidayFetcher interface {
	Fetch(ctx context.Context, year int, loc *time.Location) ([]calendar.Holiday, error)
}

// HolidayStore persists holidays per market
type HolidayStore interface {
	SaveHolidays(ctx context.Context, market string, holidays []calendar.Holiday) (int, error)
}

// Publisher delivers notifications (notify.Hub)
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

// HolidayRefreshJob imports the exchange holiday page weekly
type HolidayRefreshJob struct {
	fetcher   HolidayFetcher
	store     HolidayStore
	calendar  *calendar.Calendar
	cache     *redis.Cache
	publisher Publisher
	schedule  string
	now       func() time.Time
	logger    *logger.Logger
}

// NewHolidayRefreshJob creates a holiday refresh job. cache and publisher may be nil.
func NewHolidayRefreshJob(
	fetcher HolidayFetcher,
	store HolidayStore,
	cal *calendar.Calendar,
	cache *redis.Cache,
	publisher Publisher,
	schedule string,
	log *logger.Logger,
) *HolidayRefreshJob {
	if schedule == "" {
		schedule = "0 0 4 * * 1"
	}
	return &HolidayRefreshJob{
		fetcher:   fetcher,
		store:     store,
		calendar:  cal,
		cache:     cache,
		publisher: publisher,
		schedule:  schedule,
		now:       time.Now,
		logger:    log.Component("jobs.holidays"),
	}
}

// Name returns the job name
func (j *HolidayRefreshJob) Name() string {
	return "holiday_refresh"
}

// Schedule returns the cron schedule (default Monday 04:00)
func (j *HolidayRefreshJob) Schedule() string {
	return j.schedule
}

// Run fetches, persists and applies the current year's holidays
func (j *HolidayRefreshJob) Run(ctx context.Context) error {
	year := j.calendar.Local(j.now()).Year()

	holidays, err := j.fetcher.Fetch(ctx, year, j.calendar.Location)
	if err != nil {
		return fmt.Errorf("fetch holidays: %w", err)
	}
	if len(holidays) == 0 {
		return fmt.Errorf("holiday source returned no holidays for %d", year)
	}

	saved, err := j.store.SaveHolidays(ctx, j.calendar.Code, holidays)
	if err != nil {
		return fmt.Errorf("save holidays: %w", err)
	}

	added := 0
	for _, h := range holidays {
		if j.calendar.AddHoliday(h) {
			added++
		}
	}

	if j.cache != nil {
		if err := j.cache.Set(ctx, redis.HolidaysKey(j.calendar.Code, year), holidays, redis.TTLDaily*7); err != nil {
			j.logger.WithError(err).Warn("Failed to cache holidays")
		}
	}

	if added > 0 && j.publisher != nil {
		ev, err := notify.NewEvent(notify.EventHolidaysRefreshed, "", map[string]interface{}{
			"market": j.calendar.Code,
			"year":   year,
			"added":  added,
		})
		if err == nil {
			err = j.publisher.Publish(ctx, ev)
		}
		if err != nil {
			j.logger.WithError(err).Warn("Failed to publish holiday event")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"market":  j.calendar.Code,
		"year":    year,
		"fetched": len(holidays),
		"saved":   saved,
		"added":   added,
	}).Info("Holiday refresh completed")

	return nil
}
