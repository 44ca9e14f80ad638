// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package accounts

import (
	"context"
	"time"

	"github.com/launchkit/launchkit/pkg/pagination"
)

// # Account Data Access

// AccountRepository defines the data access contract for accounts and their profiles.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*Account, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		CreateWithProfile persists a new account and its empty profile inside
		one transaction, so an account can never exist without a profile.

		Parameters:
		  - context: context.Context
		  - account: *Account
		  - profile: *Profile

		Returns:
		  - error: Persistence failures
	*/
	CreateWithProfile(context context.Context, account *Account, profile *Profile) error

	/*
		UpdateNames persists changes to the account's first and last name.

		Parameters:
		  - context: context.Context
		  - account: *Account

		Returns:
		  - error: Persistence failures
	*/
	UpdateNames(context context.Context, account *Account) error

	/*
		UpdatePassword replaces only the account's password hash.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, accountID, newHash string) error

	/*
		UpdateLastLogin stamps the account's last successful login time.

		Parameters:
		  - context: context.Context
		  - accountID: string
		  - loginTime: time.Time

		Returns:
		  - error: Persistence failures
	*/
	UpdateLastLogin(context context.Context, accountID string, loginTime time.Time) error
}

// ProfileRepository defines the data access contract for the 1:1 profile.
type ProfileRepository interface {

	/*
		FindByAccountID returns the profile attached to the account.

		Parameters:
		  - context: context.Context
		  - accountID: string

		Returns:
		  - *Profile: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByAccountID(context context.Context, accountID string) (*Profile, error)

	/*
		Update persists the mutable profile fields.

		Parameters:
		  - context: context.Context
		  - profile: *Profile

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, profile *Profile) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new tracking session for an authenticated login.
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the active (unrevoked, unexpired) session
		matching the given token hash.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		Revoke marks a specific session as permanently invalidated.
	*/
	Revoke(context context.Context, sessionID string) error

	/*
		RevokeAll revokes every active session belonging to the account.
	*/
	RevokeAll(context context.Context, accountID string) error

	/*
		RevokeOthers revokes all sessions belonging to the account except
		the current one.
	*/
	RevokeOthers(context context.Context, accountID, currentSessionID string) error

	/*
		DeleteExpired physically removes sessions whose ExpiresAt is in the
		past, returning the number of rows removed.
	*/
	DeleteExpired(context context.Context) (int, error)
}

// # Audit Data Access

// LoginAttemptRepository defines the contract for the append-only login audit log.
type LoginAttemptRepository interface {

	/*
		Create appends one audit row. Rows are never updated or deleted.
	*/
	Create(context context.Context, attempt *LoginAttempt) error

	/*
		List returns audit rows newest-first with the total row count.
	*/
	List(context context.Context, page pagination.Params) ([]LoginAttempt, int, error)
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing single-use password
// reset tokens. Get followed by Delete enforces the single-use property.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with an accountID for a limited duration.
	*/
	Set(context context.Context, token string, accountID string, ttl time.Duration) error

	/*
		Get retrieves the accountID associated with a given reset token.

		Returns:
		  - string: AccountID
		  - error: apperr.NotFound when absent or expired
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a reset token after successful use.
	*/
	Delete(context context.Context, token string) error
}

// LockoutRepository tracks consecutive failed logins per client IP and
// username. Counters expire on their own after the cooloff window.
type LockoutRepository interface {

	/*
		RegisterFailure increments the failure counter and returns the new
		count. The first failure starts the cooloff window.
	*/
	RegisterFailure(context context.Context, ipAddress, username string, window time.Duration) (int, error)

	/*
		Failures returns the current failure count (0 when no window is open).
	*/
	Failures(context context.Context, ipAddress, username string) (int, error)

	/*
		Reset clears the counter after a successful login.
	*/
	Reset(context context.Context, ipAddress, username string) error
}
