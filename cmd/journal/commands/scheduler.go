package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/scheduler"
	"github.com/wonny/tradejournal/internal/scheduler/jobs"
	"github.com/wonny/tradejournal/pkg/httputil"
	"github.com/wonny/tradejournal/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행 (완료까지 대기)
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/journal scheduler start
  go run ./cmd/journal scheduler list
  go run ./cmd/journal scheduler run pattern_snapshot`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- pattern_snapshot: 매일 (SNAPSHOT_SCHEDULE, 기본 02:30) 전체 사용자 분석/저장
- holiday_refresh: 매주 (HOLIDAY_REFRESH_SCHEDULE) 휴장일 갱신 (HOLIDAY_SOURCE_URL 필요)
- report_cache_purge: 매시간 이전 임계값으로 계산된 캐시 리포트 삭제

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 스케줄/다음 실행 시각 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Trade Journal Scheduler ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := buildScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	PrintList(os.Stdout, sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	return withScheduler(func(_ *app, sched *scheduler.Scheduler) error {
		fmt.Println("Registered jobs:")
		PrintList(os.Stdout, sched.GetAllJobs())
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	return withScheduler(func(_ *app, sched *scheduler.Scheduler) error {
		fmt.Printf("Running job: %s\n", jobName)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := sched.RunJobNow(ctx, jobName)
		if err != nil {
			PrintError(os.Stdout, fmt.Sprintf("%s failed after %d attempt(s): %v", jobName, result.Attempts, err))
			return err
		}
		PrintSuccess(os.Stdout, fmt.Sprintf("%s completed in %s", jobName, result.Duration))
		return nil
	})
}

func showStatus(cmd *cobra.Command, args []string) error {
	return withScheduler(func(_ *app, sched *scheduler.Scheduler) error {
		sched.Start()
		defer sched.Stop()

		stats := sched.GetJobStats()

		fmt.Println("Job Schedule:")
		fmt.Println()

		widths := []int{20, 16, 25}
		PrintTableHeader(os.Stdout, []string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)
		for _, name := range sched.GetAllJobs() {
			st := stats[name]
			next := "-"
			if st.NextRun != nil {
				next = st.NextRun.Format("2006-01-02 15:04:05 MST")
			}
			PrintTableRow(os.Stdout, []string{name, st.Schedule, next}, widths)
		}
		return nil
	})
}

func withScheduler(fn func(a *app, sched *scheduler.Scheduler) error) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := buildScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	return fn(a, sched)
}

// buildScheduler registers every job; cron runs in the market timezone
func buildScheduler(a *app) (*scheduler.Scheduler, error) {
	cal := a.reporter.Calendar()
	sched := scheduler.New(a.log, scheduler.WithLocation(cal.Location))

	if err := sched.AddJob(jobs.NewPatternSnapshotJob(a.snapshots, a.cfg.Analytics.SnapshotSchedule, a.log)); err != nil {
		return nil, err
	}

	if a.cfg.Calendar.HolidaySourceURL != "" {
		fetcher := calendar.NewFetcher(holidayHTTPClient(a), a.cfg.Calendar.HolidaySourceURL, a.log)
		job := jobs.NewHolidayRefreshJob(fetcher, a.store, cal, a.cache, a.hub, a.cfg.Calendar.RefreshSchedule, a.log)
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	} else {
		a.log.Info("HOLIDAY_SOURCE_URL not set, holiday_refresh disabled")
	}

	if err := sched.AddJob(jobs.NewReportCachePurgeJob(a.cache, a.reporter.ConfigHash(), a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

// holidayHTTPClient throttles the exchange page across processes when Redis is on
func holidayHTTPClient(a *app) *httputil.Client {
	return httputil.New(a.cfg, a.log).
		WithRateLimiter(redis.NewRateLimiter(a.redis, cachePrefix), redis.HolidaySourceRateLimit)
}
