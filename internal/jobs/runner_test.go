// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory queue for runner tests.
type fakeRepository struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{jobs: make(map[string]*Job)}
}

func (repository *fakeRepository) add(job *Job) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.jobs[job.ID] = job
}

func (repository *fakeRepository) get(jobID string) Job {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return *repository.jobs[jobID]
}

func (repository *fakeRepository) Enqueue(_ context.Context, queue, jobType string, payload json.RawMessage) (*Job, error) {
	return repository.EnqueueAt(context.Background(), queue, jobType, payload, time.Now())
}

func (repository *fakeRepository) EnqueueAt(_ context.Context, queue, jobType string, payload json.RawMessage, at time.Time) (*Job, error) {
	job := &Job{
		ID:          jobType + "-" + at.String(),
		Queue:       queue,
		Type:        jobType,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		ScheduledAt: at,
	}
	repository.add(job)
	return job, nil
}

func (repository *fakeRepository) ClaimNext(_ context.Context, queue string) (*Job, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, job := range repository.jobs {
		if job.Queue == queue && job.Status == StatusPending && !job.ScheduledAt.After(time.Now()) {
			job.Status = StatusRunning
			job.Attempts++
			claimed := *job
			return &claimed, nil
		}
	}
	return nil, nil
}

func (repository *fakeRepository) MarkCompleted(_ context.Context, jobID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.jobs[jobID].Status = StatusCompleted
	return nil
}

func (repository *fakeRepository) Reschedule(_ context.Context, jobID string, retryAt time.Time, lastError string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	job := repository.jobs[jobID]
	job.Status = StatusPending
	job.ScheduledAt = retryAt
	job.LastError = lastError
	return nil
}

func (repository *fakeRepository) MarkFailed(_ context.Context, jobID string, lastError string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	job := repository.jobs[jobID]
	job.Status = StatusFailed
	job.LastError = lastError
	return nil
}

func (repository *fakeRepository) CountPending(_ context.Context, queue string) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	count := 0
	for _, job := range repository.jobs {
		if job.Queue == queue && job.Status == StatusPending {
			count++
		}
	}
	return count, nil
}

func newTestRunner(repository Repository) *Runner {
	return NewRunner(repository, nil, slog.New(slog.DiscardHandler), RunnerOptions{})
}

func pendingJob(jobID string, attempts, maxAttempts int) *Job {
	return &Job{
		ID:          jobID,
		Queue:       QueueDefault,
		Type:        TypeSendEmail,
		Payload:     json.RawMessage(`{}`),
		Status:      StatusPending,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
		ScheduledAt: time.Now().Add(-time.Second),
	}
}

func TestRunner_ProcessNext_CompletesSuccessfulJob(t *testing.T) {
	repository := newFakeRepository()
	repository.add(pendingJob("job-1", 0, DefaultMaxAttempts))

	runner := newTestRunner(repository)
	handled := false
	runner.Register(TypeSendEmail, func(_ context.Context, _ json.RawMessage) error {
		handled = true
		return nil
	})

	claimed := runner.processNext(context.Background(), runner.logger)

	assert.True(t, claimed)
	assert.True(t, handled)
	assert.Equal(t, StatusCompleted, repository.get("job-1").Status)
}

func TestRunner_ProcessNext_ReschedulesFailedAttempt(t *testing.T) {
	repository := newFakeRepository()
	repository.add(pendingJob("job-1", 0, DefaultMaxAttempts))

	runner := newTestRunner(repository)
	runner.Register(TypeSendEmail, func(_ context.Context, _ json.RawMessage) error {
		return errors.New("smtp unavailable")
	})

	before := time.Now()
	runner.processNext(context.Background(), runner.logger)

	job := repository.get("job-1")
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Contains(t, job.LastError, "smtp unavailable")
	// First retry is delayed by the base backoff.
	assert.True(t, job.ScheduledAt.After(before.Add(RetryBackoffBase-time.Second)))
}

func TestRunner_ProcessNext_FailsPermanentlyAfterMaxAttempts(t *testing.T) {
	repository := newFakeRepository()
	// Two attempts already burned; the next failure is the last.
	repository.add(pendingJob("job-1", DefaultMaxAttempts-1, DefaultMaxAttempts))

	runner := newTestRunner(repository)
	runner.Register(TypeSendEmail, func(_ context.Context, _ json.RawMessage) error {
		return errors.New("still broken")
	})

	runner.processNext(context.Background(), runner.logger)

	job := repository.get("job-1")
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, DefaultMaxAttempts, job.Attempts)
	assert.Contains(t, job.LastError, "still broken")
}

func TestRunner_ProcessNext_UnregisteredTypeFailsPermanently(t *testing.T) {
	repository := newFakeRepository()
	repository.add(pendingJob("job-1", 0, DefaultMaxAttempts))

	runner := newTestRunner(repository)

	runner.processNext(context.Background(), runner.logger)

	job := repository.get("job-1")
	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.LastError, "no handler registered")
}

func TestRunner_ProcessNext_RecoversFromHandlerPanic(t *testing.T) {
	repository := newFakeRepository()
	repository.add(pendingJob("job-1", 0, DefaultMaxAttempts))

	runner := newTestRunner(repository)
	runner.Register(TypeSendEmail, func(_ context.Context, _ json.RawMessage) error {
		panic("boom")
	})

	require.NotPanics(t, func() {
		runner.processNext(context.Background(), runner.logger)
	})

	job := repository.get("job-1")
	assert.Equal(t, StatusPending, job.Status)
	assert.Contains(t, job.LastError, "job_handler_panicked")
}

func TestRunner_ProcessNext_EmptyQueue(t *testing.T) {
	runner := newTestRunner(newFakeRepository())
	assert.False(t, runner.processNext(context.Background(), runner.logger))
}

func TestRetryBackoff_Doubles(t *testing.T) {
	assert.Equal(t, 30*time.Second, RetryBackoff(1))
	assert.Equal(t, 60*time.Second, RetryBackoff(2))
	assert.Equal(t, 120*time.Second, RetryBackoff(3))
	assert.Equal(t, 30*time.Second, RetryBackoff(0))
}

func TestScheduler_RunsTaskImmediately(t *testing.T) {
	var mu sync.Mutex
	runs := 0

	scheduler := NewScheduler(slog.New(slog.DiscardHandler), PeriodicTask{
		Name:     "test_task",
		Interval: time.Hour,
		Run: func(_ context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			runs++
			return nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return runs == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	scheduler.Stop()
}
