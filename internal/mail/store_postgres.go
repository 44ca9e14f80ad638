// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package mail

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchkit/launchkit/internal/platform/database/schema"
	"github.com/launchkit/launchkit/pkg/pagination"
	"github.com/launchkit/launchkit/pkg/uuid"
)

// PostgresRecordRepository implements [RecordRepository] using pgx.
//
// # Schema Table Mapping
//   - mail.emailrecord: Append-only audit log of every delivery attempt.
type PostgresRecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository creates a new Postgres implementation for email auditing.
func NewRecordRepository(pool *pgxpool.Pool) *PostgresRecordRepository {
	return &PostgresRecordRepository{pool: pool}
}

/*
Create inserts one audit row into mail.emailrecord.

The row's ID and CreatedAt are populated on the passed record.

Parameters:
  - context: context.Context
  - record: *Record

Returns:
  - error: Insert failures
*/
func (repository *PostgresRecordRepository) Create(context context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`,
		schema.EmailRecord.Table,
		schema.EmailRecord.ID, schema.EmailRecord.FromEmail, schema.EmailRecord.ToEmails,
		schema.EmailRecord.CcEmails, schema.EmailRecord.BccEmails, schema.EmailRecord.Subject,
		schema.EmailRecord.Body, schema.EmailRecord.HTMLBody, schema.EmailRecord.Status,
		schema.EmailRecord.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		record.ID,
		record.FromEmail,
		record.ToEmails,
		record.CcEmails,
		record.BccEmails,
		record.Subject,
		record.Body,
		record.HTMLBody,
		record.Status,
	).Scan(&record.CreatedAt)

	if err != nil {
		return fmt.Errorf("postgres_email_record_create_failed: %w", err)
	}

	return nil
}

/*
List returns audit rows newest-first with the total row count.

Parameters:
  - context: context.Context
  - page: pagination.Params

Returns:
  - []Record: One page of audit rows
  - int: Total number of rows
  - error: Query failures
*/
func (repository *PostgresRecordRepository) List(context context.Context, page pagination.Params) ([]Record, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.EmailRecord.Table)

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_email_record_count_failed: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2`,
		schema.EmailRecord.ID, schema.EmailRecord.FromEmail, schema.EmailRecord.ToEmails,
		schema.EmailRecord.CcEmails, schema.EmailRecord.BccEmails, schema.EmailRecord.Subject,
		schema.EmailRecord.Body, schema.EmailRecord.HTMLBody, schema.EmailRecord.Status, schema.EmailRecord.CreatedAt,
		schema.EmailRecord.Table,
		schema.EmailRecord.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_email_record_list_failed: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(
			&record.ID,
			&record.FromEmail,
			&record.ToEmails,
			&record.CcEmails,
			&record.BccEmails,
			&record.Subject,
			&record.Body,
			&record.HTMLBody,
			&record.Status,
			&record.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_email_record_scan_failed: %w", err)
		}
		records = append(records, record)
	}

	return records, total, nil
}
