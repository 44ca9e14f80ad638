// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchkit/launchkit/internal/platform/database/schema"
	"github.com/launchkit/launchkit/pkg/uuid"
)

// PostgresRepository implements [Repository] using pgx.
//
// # Schema Table Mapping
//   - jobs.job: The queue itself. Claims rely on FOR UPDATE SKIP LOCKED.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Postgres implementation of the job queue.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Enqueue inserts a pending job scheduled for immediate execution.

Parameters:
  - context: context.Context
  - queue: string
  - jobType: string
  - payload: json.RawMessage

Returns:
  - *Job: The stored job with server-side timestamps
  - error: Insert failures
*/
func (repository *PostgresRepository) Enqueue(context context.Context, queue, jobType string, payload json.RawMessage) (*Job, error) {
	return repository.EnqueueAt(context, queue, jobType, payload, time.Now())
}

/*
EnqueueAt inserts a pending job scheduled to run at a specific time.

Parameters:
  - context: context.Context
  - queue: string
  - jobType: string
  - payload: json.RawMessage
  - at: time.Time

Returns:
  - *Job: The stored job
  - error: Insert failures
*/
func (repository *PostgresRepository) EnqueueAt(context context.Context, queue, jobType string, payload json.RawMessage, at time.Time) (*Job, error) {
	job := &Job{
		ID:          uuid.New(),
		Queue:       queue,
		Type:        jobType,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		ScheduledAt: at,
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`,
		schema.Job.Table,
		schema.Job.ID, schema.Job.Queue, schema.Job.Type, schema.Job.Payload,
		schema.Job.Status, schema.Job.MaxAttempts, schema.Job.ScheduledAt,
		schema.Job.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		job.ID,
		job.Queue,
		job.Type,
		job.Payload,
		job.Status,
		job.MaxAttempts,
		job.ScheduledAt,
	).Scan(&job.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("postgres_job_enqueue_failed: %w", err)
	}

	return job, nil
}

/*
ClaimNext atomically claims the oldest due pending job on the queue.

The claim moves the row to 'running' and increments its attempt counter in a
single statement, so concurrent workers each receive a distinct job.

Parameters:
  - context: context.Context
  - queue: string

Returns:
  - *Job: The claimed job, or nil when the queue is empty
  - error: Query failures
*/
func (repository *PostgresRepository) ClaimNext(context context.Context, queue string) (*Job, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $2, %s = %s + 1, %s = NOW()
		WHERE %s = (
			SELECT %s FROM %s
			WHERE %s = $1 AND %s = $3 AND %s <= NOW()
			ORDER BY %s
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s`,
		schema.Job.Table, schema.Job.Status, schema.Job.Attempts, schema.Job.Attempts, schema.Job.StartedAt,
		schema.Job.ID,
		schema.Job.ID, schema.Job.Table,
		schema.Job.Queue, schema.Job.Status, schema.Job.ScheduledAt,
		schema.Job.ScheduledAt,
		schema.Job.ID, schema.Job.Queue, schema.Job.Type, schema.Job.Payload, schema.Job.Status,
		schema.Job.Attempts, schema.Job.MaxAttempts, schema.Job.LastError, schema.Job.ScheduledAt,
		schema.Job.StartedAt, schema.Job.CreatedAt,
	)

	job := &Job{}
	var lastError *string
	err := repository.pool.QueryRow(context, query, queue, StatusRunning, StatusPending).Scan(
		&job.ID,
		&job.Queue,
		&job.Type,
		&job.Payload,
		&job.Status,
		&job.Attempts,
		&job.MaxAttempts,
		&lastError,
		&job.ScheduledAt,
		&job.StartedAt,
		&job.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_job_claim_failed: %w", err)
	}

	if lastError != nil {
		job.LastError = *lastError
	}

	return job, nil
}

/*
MarkCompleted finishes a job successfully.
*/
func (repository *PostgresRepository) MarkCompleted(context context.Context, jobID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.Job.Table, schema.Job.Status, schema.Job.FinishedAt, schema.Job.ID)

	if _, err := repository.pool.Exec(context, query, jobID, StatusCompleted); err != nil {
		return fmt.Errorf("postgres_job_complete_failed: %w", err)
	}

	return nil
}

/*
Reschedule returns a running job to pending for a later retry.

Parameters:
  - context: context.Context
  - jobID: string
  - retryAt: time.Time (when the job becomes due again)
  - lastError: string (the failure that caused the retry)
*/
func (repository *PostgresRepository) Reschedule(context context.Context, jobID string, retryAt time.Time, lastError string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4 WHERE %s = $1`,
		schema.Job.Table, schema.Job.Status, schema.Job.ScheduledAt, schema.Job.LastError, schema.Job.ID)

	if _, err := repository.pool.Exec(context, query, jobID, StatusPending, retryAt, lastError); err != nil {
		return fmt.Errorf("postgres_job_reschedule_failed: %w", err)
	}

	return nil
}

/*
MarkFailed finishes a job permanently with the final error.
*/
func (repository *PostgresRepository) MarkFailed(context context.Context, jobID string, lastError string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = NOW() WHERE %s = $1`,
		schema.Job.Table, schema.Job.Status, schema.Job.LastError, schema.Job.FinishedAt, schema.Job.ID)

	if _, err := repository.pool.Exec(context, query, jobID, StatusFailed, lastError); err != nil {
		return fmt.Errorf("postgres_job_fail_failed: %w", err)
	}

	return nil
}

/*
CountPending reports how many jobs are waiting on the queue.
*/
func (repository *PostgresRepository) CountPending(context context.Context, queue string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2`,
		schema.Job.Table, schema.Job.Queue, schema.Job.Status)

	var count int
	if err := repository.pool.QueryRow(context, query, queue, StatusPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_job_count_pending_failed: %w", err)
	}

	return count, nil
}
