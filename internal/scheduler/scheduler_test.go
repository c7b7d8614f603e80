package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vivienda/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	calls    atomic.Int32
	failures int32
	block    chan struct{}
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler(retries int) *Scheduler {
	return New(logger.Nop(), WithRetries(retries, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "b", schedule: "not a schedule"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler(0)
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJobRetries(t *testing.T) {
	s := newTestScheduler(2)
	job := &fakeJob{name: "flaky", schedule: "@every 1h", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob(context.Background(), "flaky"))
	assert.Equal(t, int32(3), job.calls.Load())

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, 3, history.Results[0].Attempts)
}

func TestRunJobExhaustsRetries(t *testing.T) {
	s := newTestScheduler(1)
	job := &fakeJob{name: "broken", schedule: "@every 1h", failures: 100}
	require.NoError(t, s.AddJob(job))

	err := s.RunJob(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transient")
	assert.Equal(t, int32(2), job.calls.Load())

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler(0)
	assert.Error(t, s.RunJob(context.Background(), "missing"))

	_, err := s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestRunJobSkipsOverlap(t *testing.T) {
	s := newTestScheduler(0)
	job := &fakeJob{name: "slow", schedule: "@every 1h", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	done := make(chan error, 1)
	go func() { done <- s.RunJob(context.Background(), "slow") }()

	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, s.RunJob(context.Background(), "slow"), ErrJobRunning)

	close(job.block)
	require.NoError(t, <-done)
}

func TestStopCancelsRunningJob(t *testing.T) {
	s := newTestScheduler(3)
	job := &fakeJob{name: "slow", schedule: "@every 1h", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	done := make(chan error, 1)
	go func() { done <- s.RunJob(s.ctx, "slow") }()
	require.Eventually(t, func() bool { return job.calls.Load() == 1 }, time.Second, time.Millisecond)

	s.Start()
	s.Stop()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), job.calls.Load(), "no retry after cancel")
}

func TestScheduledRun(t *testing.T) {
	s := newTestScheduler(0)
	job := &fakeJob{name: "tick", schedule: "@every 1s"}
	require.NoError(t, s.AddJob(job))

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return job.calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	assert.NotNil(t, s.GetJobStats()["tick"].NextRun)
}

func TestJobHistory(t *testing.T) {
	var h JobHistory
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
