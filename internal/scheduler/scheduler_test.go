package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name      string
	schedule  string
	runs      int32
	failTimes int32
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= j.failTimes {
		return errors.New("transient failure")
	}
	return nil
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	job := &stubJob{name: "test-job", schedule: "0 0 19 * * 1-5"}
	require.NoError(t, s.AddJob(job))

	// Duplicate name is rejected
	err := s.AddJob(&stubJob{name: "test-job", schedule: "0 0 20 * * *"})
	assert.Error(t, err)

	// Bad cron expression is rejected
	err = s.AddJob(&stubJob{name: "broken", schedule: "not a schedule"})
	assert.Error(t, err)
}

func TestScheduler_RunJob_RecordsHistory(t *testing.T) {
	s := New(zerolog.Nop())

	job := &stubJob{name: "ok-job", schedule: "@daily"}
	s.runJob(job)

	history := s.History("ok-job")
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Empty(t, history[0].Error)
	assert.Equal(t, "ok-job", history[0].JobName)
}

func TestScheduler_RunJob_RetriesUntilSuccess(t *testing.T) {
	s := New(zerolog.Nop())
	s.retryDelay = time.Millisecond

	job := &stubJob{name: "flaky-job", schedule: "@daily", failTimes: 2}
	s.runJob(job)

	assert.Equal(t, int32(3), atomic.LoadInt32(&job.runs))

	history := s.History("flaky-job")
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
}

func TestScheduler_RunJob_FailureAfterAllRetries(t *testing.T) {
	s := New(zerolog.Nop())
	s.retryDelay = time.Millisecond

	job := &stubJob{name: "broken-job", schedule: "@daily", failTimes: 100}
	s.runJob(job)

	// Initial attempt plus maxRetries
	assert.Equal(t, int32(4), atomic.LoadInt32(&job.runs))

	history := s.History("broken-job")
	require.Len(t, history, 1)
	assert.False(t, history[0].Success)
	assert.Contains(t, history[0].Error, "transient failure")
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob(&stubJob{name: "idle-job", schedule: "0 0 3 * * *"}))

	s.Start()
	s.Stop()
}
