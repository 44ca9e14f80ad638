// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

/*
Package tasks wires the background work of the system together.

It registers the job handlers executed by the queue runner, provides the
enqueuer adapter used by the domain services, and defines the periodic
maintenance tasks driven by the scheduler.

# Architecture

  - Handlers: Functions bound to job types (send_email, send_password_reset_email).
  - Enqueuer: Thin adapter from the accounts.TaskEnqueuer contract to the queue.
  - Periodic: Session cleanup, database connection watch, email queue monitor.
*/
package tasks

import (
	"context"
	"fmt"

	"github.com/launchkit/launchkit/internal/jobs"
)

// Enqueuer adapts the job queue repository to the narrow enqueue contract
// the domain services depend on.
type Enqueuer struct {
	repository jobs.Repository
}

// NewEnqueuer creates an enqueuer backed by the given queue repository.
func NewEnqueuer(repository jobs.Repository) *Enqueuer {
	return &Enqueuer{repository: repository}
}

// EnqueueTask serializes the payload and schedules a job of the given type
// on the default queue for immediate execution.
func (enqueuer *Enqueuer) EnqueueTask(context context.Context, jobType string, payload any) error {
	encoded, err := jobs.EncodePayload(payload)
	if err != nil {
		return fmt.Errorf("task_payload_encode_failed: %w", err)
	}

	if _, err := enqueuer.repository.Enqueue(context, jobs.QueueDefault, jobType, encoded); err != nil {
		return fmt.Errorf("task_enqueue_failed: %w", err)
	}

	return nil
}
