// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// Repository is the storage contract for the job queue.
//
// # Why an interface?
//
// The runner is tested against an in-memory fake; only the Postgres
// implementation talks SQL.
type Repository interface {
	// Enqueue inserts a pending job scheduled for immediate execution.
	Enqueue(ctx context.Context, queue, jobType string, payload json.RawMessage) (*Job, error)

	// EnqueueAt inserts a pending job scheduled to run at a specific time.
	EnqueueAt(ctx context.Context, queue, jobType string, payload json.RawMessage, at time.Time) (*Job, error)

	// ClaimNext atomically claims the oldest due pending job on the queue,
	// moving it to running and incrementing its attempt counter.
	// Returns (nil, nil) when the queue is empty.
	ClaimNext(ctx context.Context, queue string) (*Job, error)

	// MarkCompleted finishes a job successfully.
	MarkCompleted(ctx context.Context, jobID string) error

	// Reschedule returns a running job to pending with a new scheduled time
	// and records the error that caused the retry.
	Reschedule(ctx context.Context, jobID string, retryAt time.Time, lastError string) error

	// MarkFailed finishes a job permanently with the final error.
	MarkFailed(ctx context.Context, jobID string, lastError string) error

	// CountPending reports how many jobs are waiting on the queue.
	CountPending(ctx context.Context, queue string) (int, error)
}
