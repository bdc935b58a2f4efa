package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradejournal/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // 처음 n번 실패
	calls    int32
	block    chan struct{}
	started  chan struct{}
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if j.started != nil {
		j.started <- struct{}{}
	}
	if j.block != nil {
		<-j.block
	}
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 30 2 * * *"}))

	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}), "duplicate")
	assert.Error(t, s.AddJob(&fakeJob{name: "c", schedule: "not a cron"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))

	assert.Empty(t, s.GetAllJobs())
	assert.ErrorIs(t, s.RemoveJob("a"), ErrJobNotFound)
}

func TestRunJobNow_RetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow(context.Background(), "flaky")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))
}

func TestRunJobNow_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@hourly", failures: 100}))

	result, err := s.RunJobNow(context.Background(), "broken")

	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "boom", result.Error)

	history, err := s.GetJobHistory("broken", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
}

func TestRunJobNow_CanceledStopsRetrying(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &fakeJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := s.RunJobNow(ctx, "broken")

	require.Error(t, err)
	assert.Equal(t, 1, result.Attempts)
}

func TestRunJobNow_Unknown(t *testing.T) {
	_, err := newTestScheduler().RunJobNow(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestRunJob_SkipsWhileRunning(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "slow", schedule: "@hourly", block: make(chan struct{}), started: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("slow"))
	<-job.started

	result, err := s.RunJobNow(context.Background(), "slow")
	assert.Error(t, err)
	assert.Equal(t, "already running", result.Error)

	close(job.block)
	assert.Eventually(t, func() bool {
		h, _ := s.GetJobHistory("slow", 1)
		return len(h) == 1 && h[0].Success
	}, time.Second, 5*time.Millisecond)
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "ok", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@daily", failures: 100}))

	_, _ = s.RunJobNow(context.Background(), "ok")
	_, _ = s.RunJobNow(context.Background(), "ok")
	_, _ = s.RunJobNow(context.Background(), "broken")

	stats := s.GetJobStats()
	require.Len(t, stats, 2)

	ok := stats["ok"]
	assert.Equal(t, "@hourly", ok.Schedule)
	assert.Equal(t, 2, ok.TotalRuns)
	assert.Equal(t, 2, ok.SuccessCount)
	assert.Equal(t, 1.0, ok.SuccessRate)
	assert.NotNil(t, ok.LastSuccess)
	assert.Nil(t, ok.LastFailure)

	broken := stats["broken"]
	assert.Equal(t, 1, broken.FailureCount)
	assert.Equal(t, 0.0, broken.SuccessRate)
	assert.NotNil(t, broken.LastFailure)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	s.Start()
	assert.NotNil(t, s.GetJobStats()["a"].NextRun)
	s.Stop()
}

func TestJobHistory_Limit(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{Attempts: i, Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historyLimit)
	assert.Equal(t, 20, h.Results[0].Attempts)
	assert.Len(t, h.Latest(5), 5)
	assert.Equal(t, historyLimit+19, h.Latest(1)[0].Attempts)
	assert.Empty(t, (&JobHistory{}).Latest(3))
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
}
