// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// PeriodicTask is a named task executed on a fixed interval.
type PeriodicTask struct {
	// Name identifies the task in logs.
	Name string
	// Interval is the fixed period between runs.
	Interval time.Duration
	// Run executes one cycle. Errors are logged, never fatal.
	Run func(ctx context.Context) error
}

// Scheduler drives periodic maintenance tasks (session cleanup, connection
// checks, queue monitoring) inside the worker binary.
//
// Each task runs once immediately at startup, then on its own ticker until
// the context is cancelled.
type Scheduler struct {
	tasks  []PeriodicTask
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler for the given tasks.
func NewScheduler(logger *slog.Logger, tasks ...PeriodicTask) *Scheduler {
	return &Scheduler{tasks: tasks, logger: logger}
}

// Start launches one goroutine per task. It returns immediately.
func (scheduler *Scheduler) Start(ctx context.Context) {
	for _, task := range scheduler.tasks {
		scheduler.wg.Add(1)
		go scheduler.loop(ctx, task)
	}

	scheduler.logger.Info("scheduler_started", slog.Int("tasks", len(scheduler.tasks)))
}

// Stop blocks until every task loop has exited.
func (scheduler *Scheduler) Stop() {
	scheduler.wg.Wait()
	scheduler.logger.Info("scheduler_stopped")
}

// loop runs one task immediately and then on its interval.
func (scheduler *Scheduler) loop(ctx context.Context, task PeriodicTask) {
	defer scheduler.wg.Done()

	taskLogger := scheduler.logger.With(slog.String("task", task.Name))

	scheduler.runOnce(ctx, task, taskLogger)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scheduler.runOnce(ctx, task, taskLogger)
		}
	}
}

// runOnce executes a single cycle and logs the outcome.
func (scheduler *Scheduler) runOnce(ctx context.Context, task PeriodicTask, logger *slog.Logger) {
	startTime := time.Now()

	if err := task.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.ErrorContext(ctx, "periodic_task_failed", slog.Any("error", err))
		return
	}

	logger.InfoContext(ctx, "periodic_task_finished",
		slog.Int64("duration_ms", time.Since(startTime).Milliseconds()),
	)
}
