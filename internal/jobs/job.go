// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

/*
Package jobs provides the PostgreSQL-backed background task queue.

The API server enqueues work; the worker binary claims and executes it with
at-least-once semantics. Claims use FOR UPDATE SKIP LOCKED so that multiple
worker processes never double-claim a job.

# Retry Policy

A failing attempt reschedules the job with exponential backoff (30s base,
doubling per attempt) until MaxAttempts is reached, after which the job is
marked failed permanently and logged. There is no dead-letter store; the
jobs.job row itself is the record of the failure.
*/
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job status values.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Queue names.
const (
	// QueueDefault carries all asynchronous work handed off by the API.
	QueueDefault = "default"
)

// Job type identifiers for registered handlers.
const (
	TypeSendEmail              = "send_email"
	TypeSendPasswordResetEmail = "send_password_reset_email"
)

// Retry policy defaults.
const (
	// DefaultMaxAttempts is how many times a job may run before it is
	// marked failed permanently.
	DefaultMaxAttempts = 3

	// RetryBackoffBase is the delay before the first retry. Each further
	// retry doubles it.
	RetryBackoffBase = 30 * time.Second
)

// Job is one unit of deferred work.
type Job struct {
	ID          string          `json:"id"`
	Queue       string          `json:"queue"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	LastError   string          `json:"last_error,omitempty"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// HandlerFunc executes one job attempt. A non-nil error triggers the retry
// policy; decoding the payload is the handler's responsibility.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// RetryBackoff returns the delay before the given retry. attempt is the
// number of attempts already made (1 after the first failure).
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return RetryBackoffBase << (attempt - 1)
}

// EncodePayload marshals a handler payload for enqueueing.
func EncodePayload(payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("job_payload_encode_failed: %w", err)
	}
	return raw, nil
}
