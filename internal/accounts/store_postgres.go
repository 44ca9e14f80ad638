// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchkit/launchkit/internal/platform/database/schema"
	"github.com/launchkit/launchkit/internal/platform/dberr"
	"github.com/launchkit/launchkit/pkg/pagination"
	"github.com/launchkit/launchkit/pkg/uuid"
)

// # Account Repository

// PostgresAccountRepository implements [AccountRepository] using pgx.
//
// # Schema Table Mapping
//   - accounts.account: Identity and credential storage.
//   - accounts.profile: 1:1 extended attributes, created with the account.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new Postgres implementation for accounts.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

func accountSelectQuery(whereColumn string) string {
	return fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.Account.ID, schema.Account.Username, schema.Account.Email,
		schema.Account.PasswordHash, schema.Account.FirstName, schema.Account.LastName,
		schema.Account.IsActive, schema.Account.IsStaff, schema.Account.LastLogin,
		schema.Account.DateJoined, schema.Account.UpdatedAt,
		schema.Account.Table,
		whereColumn,
	)
}

func (repository *PostgresAccountRepository) findBy(context context.Context, column, value string) (*Account, error) {
	var account Account
	err := repository.pool.QueryRow(context, accountSelectQuery(column), value).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.IsActive,
		&account.IsStaff,
		&account.LastLogin,
		&account.DateJoined,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "account")
	}

	return &account, nil
}

// FindByID returns the account with the given ID.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*Account, error) {
	return repository.findBy(context, schema.Account.ID, id)
}

// FindByUsername returns the account with the given username.
func (repository *PostgresAccountRepository) FindByUsername(context context.Context, username string) (*Account, error) {
	return repository.findBy(context, schema.Account.Username, username)
}

// FindByEmail returns the account with the given email.
func (repository *PostgresAccountRepository) FindByEmail(context context.Context, email string) (*Account, error) {
	return repository.findBy(context, schema.Account.Email, email)
}

/*
CreateWithProfile persists the account and its empty profile in one transaction.

The generated ID, DateJoined, and UpdatedAt are populated on the passed
entities. Unique violations on username or email surface to the caller
unwrapped so the service layer can map them to field errors.

Parameters:
  - context: context.Context
  - account: *Account
  - profile: *Profile

Returns:
  - error: Persistence failures, including unique constraint violations
*/
func (repository *PostgresAccountRepository) CreateWithProfile(context context.Context, account *Account, profile *Profile) error {
	if account.ID == "" {
		account.ID = uuid.New()
	}

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_account_tx_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	accountQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s, %s`,
		schema.Account.Table,
		schema.Account.ID, schema.Account.Username, schema.Account.Email,
		schema.Account.PasswordHash, schema.Account.FirstName, schema.Account.LastName,
		schema.Account.IsActive, schema.Account.IsStaff,
		schema.Account.DateJoined, schema.Account.UpdatedAt,
	)

	err = transaction.QueryRow(context, accountQuery,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.IsActive,
		account.IsStaff,
	).Scan(&account.DateJoined, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_account_create_failed: %w", err)
	}

	profile.AccountID = account.ID
	profileQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		RETURNING %s, %s`,
		schema.Profile.Table,
		schema.Profile.AccountID, schema.Profile.Bio, schema.Profile.AvatarURL, schema.Profile.PhoneNumber,
		schema.Profile.CreatedAt, schema.Profile.UpdatedAt,
	)

	err = transaction.QueryRow(context, profileQuery,
		profile.AccountID,
		profile.Bio,
		profile.AvatarURL,
		profile.PhoneNumber,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_profile_create_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_account_tx_commit_failed: %w", err)
	}

	return nil
}

// UpdateNames persists changes to the account's first and last name.
func (repository *PostgresAccountRepository) UpdateNames(context context.Context, account *Account) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.Account.Table,
		schema.Account.FirstName, schema.Account.LastName, schema.Account.UpdatedAt,
		schema.Account.ID,
		schema.Account.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query, account.ID, account.FirstName, account.LastName).
		Scan(&account.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "account")
	}

	return nil
}

// UpdatePassword replaces only the account's password hash.
func (repository *PostgresAccountRepository) UpdatePassword(context context.Context, accountID, newHash string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW()
		WHERE %s = $1`,
		schema.Account.Table,
		schema.Account.PasswordHash, schema.Account.UpdatedAt,
		schema.Account.ID,
	)

	if _, err := repository.pool.Exec(context, query, accountID, newHash); err != nil {
		return fmt.Errorf("postgres_account_update_password_failed: %w", err)
	}

	return nil
}

// UpdateLastLogin stamps the account's last successful login time.
func (repository *PostgresAccountRepository) UpdateLastLogin(context context.Context, accountID string, loginTime time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2
		WHERE %s = $1`,
		schema.Account.Table,
		schema.Account.LastLogin,
		schema.Account.ID,
	)

	if _, err := repository.pool.Exec(context, query, accountID, loginTime); err != nil {
		return fmt.Errorf("postgres_account_update_last_login_failed: %w", err)
	}

	return nil
}

// # Profile Repository

// PostgresProfileRepository implements [ProfileRepository] using pgx.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new Postgres implementation for profiles.
func NewProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// FindByAccountID returns the profile attached to the account.
func (repository *PostgresProfileRepository) FindByAccountID(context context.Context, accountID string) (*Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.Profile.AccountID, schema.Profile.Bio, schema.Profile.AvatarURL,
		schema.Profile.PhoneNumber, schema.Profile.CreatedAt, schema.Profile.UpdatedAt,
		schema.Profile.Table,
		schema.Profile.AccountID,
	)

	var profile Profile
	err := repository.pool.QueryRow(context, query, accountID).Scan(
		&profile.AccountID,
		&profile.Bio,
		&profile.AvatarURL,
		&profile.PhoneNumber,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "profile")
	}

	return &profile, nil
}

// Update persists the mutable profile fields.
func (repository *PostgresProfileRepository) Update(context context.Context, profile *Profile) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = NOW()
		WHERE %s = $1
		RETURNING %s`,
		schema.Profile.Table,
		schema.Profile.Bio, schema.Profile.AvatarURL, schema.Profile.PhoneNumber, schema.Profile.UpdatedAt,
		schema.Profile.AccountID,
		schema.Profile.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		profile.AccountID,
		profile.Bio,
		profile.AvatarURL,
		profile.PhoneNumber,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "profile")
	}

	return nil
}

// # Session Repository

// PostgresSessionRepository implements [SessionRepository] using pgx.
//
// Sessions are stored by the SHA-256 hash of the refresh token. The raw
// token never touches the database.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new Postgres implementation for sessions.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// Create persists a new tracking session for an authenticated login.
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`,
		schema.Session.Table,
		schema.Session.ID, schema.Session.AccountID, schema.Session.TokenHash,
		schema.Session.IPAddress, schema.Session.UserAgent, schema.Session.ExpiresAt,
		schema.Session.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		session.ID,
		session.AccountID,
		session.TokenHash,
		session.IPAddress,
		session.UserAgent,
		session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres_session_create_failed: %w", err)
	}

	return nil
}

// FindByTokenHash returns the active session matching the given token hash.
// Revoked and expired sessions are treated as absent.
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = FALSE AND %s > NOW()`,
		schema.Session.ID, schema.Session.AccountID, schema.Session.TokenHash,
		schema.Session.IPAddress, schema.Session.UserAgent, schema.Session.IsRevoked,
		schema.Session.ExpiresAt, schema.Session.CreatedAt,
		schema.Session.Table,
		schema.Session.TokenHash, schema.Session.IsRevoked, schema.Session.ExpiresAt,
	)

	var session Session
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.AccountID,
		&session.TokenHash,
		&session.IPAddress,
		&session.UserAgent,
		&session.IsRevoked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "session")
	}

	return &session, nil
}

// Revoke marks a specific session as permanently invalidated.
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = TRUE WHERE %s = $1`,
		schema.Session.Table, schema.Session.IsRevoked, schema.Session.ID,
	)

	if _, err := repository.pool.Exec(context, query, sessionID); err != nil {
		return fmt.Errorf("postgres_session_revoke_failed: %w", err)
	}

	return nil
}

// RevokeAll revokes every active session belonging to the account.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, accountID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = TRUE WHERE %s = $1 AND %s = FALSE`,
		schema.Session.Table, schema.Session.IsRevoked,
		schema.Session.AccountID, schema.Session.IsRevoked,
	)

	if _, err := repository.pool.Exec(context, query, accountID); err != nil {
		return fmt.Errorf("postgres_session_revoke_all_failed: %w", err)
	}

	return nil
}

// RevokeOthers revokes all sessions of the account except the current one.
func (repository *PostgresSessionRepository) RevokeOthers(context context.Context, accountID, currentSessionID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = TRUE WHERE %s = $1 AND %s <> $2 AND %s = FALSE`,
		schema.Session.Table, schema.Session.IsRevoked,
		schema.Session.AccountID, schema.Session.ID, schema.Session.IsRevoked,
	)

	if _, err := repository.pool.Exec(context, query, accountID, currentSessionID); err != nil {
		return fmt.Errorf("postgres_session_revoke_others_failed: %w", err)
	}

	return nil
}

// DeleteExpired physically removes sessions past their expiry time.
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) (int, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE %s <= NOW()`,
		schema.Session.Table, schema.Session.ExpiresAt,
	)

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_delete_expired_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// # Login Attempt Repository

// PostgresLoginAttemptRepository implements [LoginAttemptRepository] using pgx.
type PostgresLoginAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewLoginAttemptRepository creates a new Postgres implementation for the login audit log.
func NewLoginAttemptRepository(pool *pgxpool.Pool) *PostgresLoginAttemptRepository {
	return &PostgresLoginAttemptRepository{pool: pool}
}

// Create appends one audit row.
func (repository *PostgresLoginAttemptRepository) Create(context context.Context, attempt *LoginAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New()
	}

	var accountID *string
	if attempt.AccountID != "" {
		accountID = &attempt.AccountID
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`,
		schema.LoginAttempt.Table,
		schema.LoginAttempt.ID, schema.LoginAttempt.AccountID, schema.LoginAttempt.Username,
		schema.LoginAttempt.IPAddress, schema.LoginAttempt.UserAgent, schema.LoginAttempt.Successful,
		schema.LoginAttempt.CreatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		attempt.ID,
		accountID,
		attempt.Username,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Successful,
	).Scan(&attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres_login_attempt_create_failed: %w", err)
	}

	return nil
}

// List returns audit rows newest-first with the total row count.
func (repository *PostgresLoginAttemptRepository) List(context context.Context, page pagination.Params) ([]LoginAttempt, int, error) {
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.LoginAttempt.Table)

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_login_attempt_count_failed: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2`,
		schema.LoginAttempt.ID, schema.LoginAttempt.AccountID, schema.LoginAttempt.Username,
		schema.LoginAttempt.IPAddress, schema.LoginAttempt.UserAgent, schema.LoginAttempt.Successful,
		schema.LoginAttempt.CreatedAt,
		schema.LoginAttempt.Table,
		schema.LoginAttempt.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_login_attempt_list_failed: %w", err)
	}
	defer rows.Close()

	var attempts []LoginAttempt
	for rows.Next() {
		var attempt LoginAttempt
		var accountID *string
		if err := rows.Scan(
			&attempt.ID,
			&accountID,
			&attempt.Username,
			&attempt.IPAddress,
			&attempt.UserAgent,
			&attempt.Successful,
			&attempt.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_login_attempt_scan_failed: %w", err)
		}
		if accountID != nil {
			attempt.AccountID = *accountID
		}
		attempts = append(attempts, attempt)
	}

	return attempts, total, nil
}
