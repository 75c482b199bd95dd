package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJob counts its runs and signals the first one on a channel.
type stubJob struct {
	name  string
	err   error
	runs  atomic.Int64
	first chan struct{}
	once  atomic.Bool
}

func newStubJob(name string) *stubJob {
	return &stubJob{name: name, first: make(chan struct{})}
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub job for scheduler tests" }

func (j *stubJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.once.CompareAndSwap(false, true) {
		close(j.first)
	}
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	config := DefaultSchedulerConfig()
	config.TickInterval = 5 * time.Millisecond
	s := NewScheduler(config)
	t.Cleanup(func() {
		if s.IsRunning() {
			_ = s.Stop()
		}
	})
	return s
}

func TestRegister_RejectsDuplicatesAndNils(t *testing.T) {
	s := newTestScheduler(t)
	schedule := NewIntervalSchedule(time.Minute)

	require.NoError(t, s.Register(newStubJob("sweep"), schedule))
	assert.ErrorIs(t, s.Register(newStubJob("sweep"), schedule), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, schedule), ErrNilJob)
	assert.ErrorIs(t, s.Register(newStubJob("other"), nil), ErrNilSchedule)
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := newTestScheduler(t)

	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduler_RunsDueJob(t *testing.T) {
	s := newTestScheduler(t)
	job := newStubJob("sweep")
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-job.first:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never run")
	}

	require.NoError(t, s.Stop())
	assert.GreaterOrEqual(t, job.runs.Load(), int64(1))
}

func TestRunNow_ExecutesOutsideSchedule(t *testing.T) {
	s := newTestScheduler(t)
	job := newStubJob("sweep")
	// A far-future schedule: only RunNow can trigger the job.
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.RunNow(context.Background(), "sweep"))
	assert.Equal(t, int64(1), job.runs.Load())

	assert.ErrorIs(t, s.RunNow(context.Background(), "unknown"), ErrJobNotFound)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := newTestScheduler(t)
	job := newStubJob("sweep")
	job.err = errors.New("sweep failed")
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Hour)))

	err := s.RunNow(context.Background(), "sweep")
	require.Error(t, err)

	snap := s.Metrics()
	assert.Equal(t, int64(1), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalFailures)
	assert.Equal(t, int64(1), snap.FailuresByJob["sweep"])
}

func TestListJobs_ReportsCounters(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Register(newStubJob("sweep"), NewIntervalSchedule(10*time.Minute)))
	require.NoError(t, s.RunNow(context.Background(), "sweep"))

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "sweep", infos[0].Name)
	assert.Equal(t, "@every 10m0s", infos[0].Schedule)
	assert.Equal(t, int64(1), infos[0].RunCount)
	assert.Equal(t, int64(0), infos[0].FailCount)
	assert.False(t, infos[0].NextRun.IsZero())
}

func TestMetrics_SuccessRate(t *testing.T) {
	s := newTestScheduler(t)
	ok := newStubJob("ok")
	bad := newStubJob("bad")
	bad.err = errors.New("boom")
	require.NoError(t, s.Register(ok, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(bad, NewIntervalSchedule(time.Hour)))

	require.NoError(t, s.RunNow(context.Background(), "ok"))
	require.Error(t, s.RunNow(context.Background(), "bad"))

	snap := s.Metrics()
	assert.Equal(t, int64(2), snap.TotalExecutions)
	assert.Equal(t, int64(1), snap.TotalSuccesses)
	assert.InDelta(t, 0.5, snap.SuccessRate, 1e-9)
}

func TestStop_WaitsForRunningJob(t *testing.T) {
	config := DefaultSchedulerConfig()
	config.TickInterval = 5 * time.Millisecond
	s := NewScheduler(config)

	started := make(chan struct{})
	var finished atomic.Bool
	job := &funcJob{
		name: "slow",
		fn: func(ctx context.Context) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never started")
	}

	require.NoError(t, s.Stop())
	assert.True(t, finished.Load())
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j *funcJob) Name() string                  { return j.name }
func (j *funcJob) Description() string           { return "test job" }
func (j *funcJob) Run(ctx context.Context) error { return j.fn(ctx) }
