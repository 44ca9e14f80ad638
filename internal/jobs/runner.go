// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/launchkit/launchkit/internal/platform/metrics"
)

// Runner executes queued jobs with a pool of polling workers.
//
// # Lifecycle
//
// Register handlers, then call Start. Workers poll the queue until the
// context passed to Start is cancelled; Stop waits for in-flight attempts
// to finish.
type Runner struct {
	repository Repository
	collector  *metrics.Collector
	logger     *slog.Logger

	queue          string
	workerCount    int
	pollInterval   time.Duration
	attemptTimeout time.Duration

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	wg sync.WaitGroup
}

// RunnerOptions tunes the worker pool.
type RunnerOptions struct {
	// Queue is the queue this runner drains. Defaults to [QueueDefault].
	Queue string
	// WorkerCount is the number of concurrent polling workers. Defaults to 4.
	WorkerCount int
	// PollInterval is the idle sleep between claim attempts. Defaults to 1s.
	PollInterval time.Duration
	// AttemptTimeout is the hard deadline for a single handler execution.
	// Defaults to 2m.
	AttemptTimeout time.Duration
}

// NewRunner creates a runner draining one queue.
func NewRunner(repository Repository, collector *metrics.Collector, logger *slog.Logger, options RunnerOptions) *Runner {
	if options.Queue == "" {
		options.Queue = QueueDefault
	}
	if options.WorkerCount <= 0 {
		options.WorkerCount = 4
	}
	if options.PollInterval <= 0 {
		options.PollInterval = time.Second
	}
	if options.AttemptTimeout <= 0 {
		options.AttemptTimeout = 2 * time.Minute
	}

	return &Runner{
		repository:     repository,
		collector:      collector,
		logger:         logger,
		queue:          options.Queue,
		workerCount:    options.WorkerCount,
		pollInterval:   options.PollInterval,
		attemptTimeout: options.AttemptTimeout,
		handlers:       make(map[string]HandlerFunc),
	}
}

// Register binds a handler to a job type. Enqueued jobs of unregistered
// types fail permanently on their first claim.
func (runner *Runner) Register(jobType string, handler HandlerFunc) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	runner.handlers[jobType] = handler
}

// Start launches the worker pool. It returns immediately; workers run until
// ctx is cancelled.
func (runner *Runner) Start(ctx context.Context) {
	runner.logger.Info("job_runner_started",
		slog.String("queue", runner.queue),
		slog.Int("workers", runner.workerCount),
	)

	for i := 0; i < runner.workerCount; i++ {
		runner.wg.Add(1)
		go runner.worker(ctx, i)
	}
}

// Stop blocks until all workers have exited.
func (runner *Runner) Stop() {
	runner.wg.Wait()
	runner.logger.Info("job_runner_stopped", slog.String("queue", runner.queue))
}

// worker polls the queue until the context is cancelled.
func (runner *Runner) worker(ctx context.Context, index int) {
	defer runner.wg.Done()

	workerLogger := runner.logger.With(slog.Int("worker", index), slog.String("queue", runner.queue))

	ticker := time.NewTicker(runner.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain the queue before sleeping again.
			for runner.processNext(ctx, workerLogger) {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// processNext claims and runs one job. It returns true if a job was claimed.
func (runner *Runner) processNext(ctx context.Context, logger *slog.Logger) bool {
	job, err := runner.repository.ClaimNext(ctx, runner.queue)
	if err != nil {
		if ctx.Err() == nil {
			logger.ErrorContext(ctx, "job_claim_failed", slog.Any("error", err))
		}
		return false
	}
	if job == nil {
		return false
	}

	jobLogger := logger.With(
		slog.String("job_id", job.ID),
		slog.String("job_type", job.Type),
		slog.Int("attempt", job.Attempts),
	)

	runner.mu.RLock()
	handler, registered := runner.handlers[job.Type]
	runner.mu.RUnlock()

	if !registered {
		jobLogger.ErrorContext(ctx, "job_handler_missing")
		runner.finalize(job, fmt.Sprintf("no handler registered for type %q", job.Type), jobLogger)
		return true
	}

	startTime := time.Now()
	execErr := runner.execute(ctx, handler, job)
	duration := time.Since(startTime)

	if execErr == nil {
		// Completion bookkeeping must not inherit a cancelled request context.
		finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := runner.repository.MarkCompleted(finishCtx, job.ID); err != nil {
			jobLogger.ErrorContext(ctx, "job_complete_mark_failed", slog.Any("error", err))
			return true
		}

		runner.collector.RecordJobProcessed(StatusCompleted)
		jobLogger.InfoContext(ctx, "job_completed", slog.Int64("duration_ms", duration.Milliseconds()))
		return true
	}

	jobLogger.WarnContext(ctx, "job_attempt_failed",
		slog.Int64("duration_ms", duration.Milliseconds()),
		slog.Any("error", execErr),
	)

	if job.Attempts >= job.MaxAttempts {
		runner.finalize(job, execErr.Error(), jobLogger)
		return true
	}

	retryAt := time.Now().Add(RetryBackoff(job.Attempts))
	retryCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := runner.repository.Reschedule(retryCtx, job.ID, retryAt, execErr.Error()); err != nil {
		jobLogger.ErrorContext(ctx, "job_reschedule_failed", slog.Any("error", err))
		return true
	}

	runner.collector.RecordJobRetried()
	jobLogger.InfoContext(ctx, "job_rescheduled", slog.Time("retry_at", retryAt))
	return true
}

// execute runs one attempt under the hard timeout, converting panics into errors.
func (runner *Runner) execute(ctx context.Context, handler HandlerFunc, job *Job) (err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, runner.attemptTimeout)
	defer cancel()

	defer func() {
		if recovered := recover(); recovered != nil {
			stackTrace := make([]byte, 2048)
			length := runtime.Stack(stackTrace, false)
			err = fmt.Errorf("job_handler_panicked: %v\n%s", recovered, stackTrace[:length])
		}
	}()

	return handler(attemptCtx, job.Payload)
}

// finalize marks a job failed permanently.
func (runner *Runner) finalize(job *Job, lastError string, logger *slog.Logger) {
	failCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := runner.repository.MarkFailed(failCtx, job.ID, lastError); err != nil {
		logger.Error("job_fail_mark_failed", slog.Any("error", err))
		return
	}

	runner.collector.RecordJobProcessed(StatusFailed)
	runner.collector.RecordJobExhausted()
	logger.Error("job_failed_permanently", slog.String("last_error", lastError))
}
