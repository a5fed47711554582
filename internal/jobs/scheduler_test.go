package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitlog/internal/reports"
	"visitlog/internal/testsupport"
)

type countingJob struct {
	runs  atomic.Int32
	panic bool
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("boom")
	}
	return nil
}

type fakeBackups struct {
	calls atomic.Int32
	err   error
}

func (f *fakeBackups) TriggerBackup(context.Context) (reports.BackupResult, error) {
	f.calls.Add(1)
	return reports.BackupResult{BackupPath: "/tmp/analytics-backup-1.db"}, f.err
}

func TestSchedulerDisabledWithZeroInterval(t *testing.T) {
	s := NewScheduler(&fakeBackups{}, testsupport.GetLogger(), 0)

	require.NoError(t, s.Start())
	assert.False(t, s.Enabled())
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestSchedulerRunsJobsPeriodically(t *testing.T) {
	job := &countingJob{}
	s := NewSchedulerWithJobs(testsupport.GetLogger(), 10*time.Millisecond, job)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	stopped := job.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, job.runs.Load())
}

func TestSchedulerStartTwiceIsNoop(t *testing.T) {
	s := NewSchedulerWithJobs(testsupport.GetLogger(), time.Hour, &countingJob{})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestSchedulerRecoversPanics(t *testing.T) {
	job := &countingJob{panic: true}
	s := NewSchedulerWithJobs(testsupport.GetLogger(), time.Hour, job)

	assert.NotPanics(t, s.RunNow)
	assert.NotPanics(t, s.RunNow)
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestBackupJob(t *testing.T) {
	backups := &fakeBackups{}
	s := NewScheduler(backups, testsupport.GetLogger(), time.Hour)

	s.RunNow()
	assert.Equal(t, int32(1), backups.calls.Load())

	job := NewBackupJob(&fakeBackups{err: errors.New("disk full")}, testsupport.GetLogger())
	assert.Error(t, job.Run(context.Background()))
}
