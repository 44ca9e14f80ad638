// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package accounts

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/launchkit/launchkit/internal/jobs"
	"github.com/launchkit/launchkit/internal/platform/apperr"
	"github.com/launchkit/launchkit/internal/platform/config"
	"github.com/launchkit/launchkit/internal/platform/ctxutil"
	"github.com/launchkit/launchkit/internal/platform/dberr"
	"github.com/launchkit/launchkit/internal/platform/metrics"
	"github.com/launchkit/launchkit/internal/platform/sec"
	"github.com/launchkit/launchkit/internal/platform/validate"
	"github.com/launchkit/launchkit/pkg/pagination"
	"github.com/launchkit/launchkit/pkg/pointer"
)

// # Contracts & Types

// usernameRegex accepts Unicode letters and digits plus @ . + - _,
// matching the character class enforced at registration.
var usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)

// TokenProvider defines the contract for generating signed access tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given identity.
	GenerateAccessToken(identity sec.TokenIdentity, timeToLive time.Duration) (string, error)
}

// TaskEnqueuer defines the contract for handing work to the background queue.
// It keeps this package independent of the queue's storage details.
type TaskEnqueuer interface {
	// EnqueueTask serializes the payload and schedules a job of the given type.
	EnqueueTask(context context.Context, jobType string, payload any) error
}

// PasswordResetEmailPayload is the job payload for the password-reset email
// task. The job handler renders the templates and builds the reset URL.
type PasswordResetEmailPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	UID       string `json:"uid"`
	Token     string `json:"token"`
}

// Service implements the account lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, lockout,
// or token logic must be reviewed before merging.
type Service struct {
	accounts    AccountRepository
	profiles    ProfileRepository
	sessions    SessionRepository
	attempts    LoginAttemptRepository
	resetTokens ResetTokenRepository
	lockouts    LockoutRepository
	tokens      TokenProvider
	tasks       TaskEnqueuer
	collector   *metrics.Collector
	config      *config.Config
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	accountRepo AccountRepository,
	profileRepo ProfileRepository,
	sessionRepo SessionRepository,
	attemptRepo LoginAttemptRepository,
	resetRepo ResetTokenRepository,
	lockoutRepo LockoutRepository,
	tokenProvider TokenProvider,
	taskEnqueuer TaskEnqueuer,
	collector *metrics.Collector,
	configuration *config.Config,
) *Service {
	return &Service{
		accounts:    accountRepo,
		profiles:    profileRepo,
		sessions:    sessionRepo,
		attempts:    attemptRepo,
		resetTokens: resetRepo,
		lockouts:    lockoutRepo,
		tokens:      tokenProvider,
		tasks:       taskEnqueuer,
		collector:   collector,
		config:      configuration,
	}
}

func (service *Service) identity(account *Account, sessionID string) sec.TokenIdentity {
	return sec.TokenIdentity{
		UserID:    account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Name:      account.FullName(),
		IsStaff:   account.IsStaff,
		SessionID: sessionID,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Password2 string
}

/*
Register validates, hashes, and persists a brand new account with its
empty profile in one transaction.

Duplicate username or email is reported as a field-level validation error,
not a conflict, so clients render it next to the offending input.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Account: Created entity
  - error: apperr.ValidationError or storage failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Account, error) {
	username := norm.NFKC.String(strings.TrimSpace(input.Username))

	validator := (&validate.Validator{}).
		Required(FieldUsername, username).
		MaxLen(FieldUsername, username, MaxUsernameLength).
		Required(FieldEmail, input.Email).
		MaxLen(FieldFirstName, input.FirstName, MaxNameLength).
		MaxLen(FieldLastName, input.LastName, MaxNameLength).
		Required(FieldPassword, input.Password)
	if username != "" {
		validator.Custom(FieldUsername, !usernameRegex.MatchString(username),
			"Enter a valid username. Only letters, digits and @/./+/-/_ are allowed")
	}
	if input.Email != "" {
		validator.Email(FieldEmail, input.Email)
	}
	if input.Password != "" {
		validator.Password(FieldPassword, input.Password).
			Match(FieldPassword2, input.Password, input.Password2)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Uniqueness pre-checks so each duplicate maps to its own field.
	var fieldErrors []apperr.FieldError
	if _, err := service.accounts.FindByUsername(context, username); err == nil {
		fieldErrors = append(fieldErrors, apperr.FieldError{Field: FieldUsername, Message: "A user with that username already exists"})
	}
	if _, err := service.accounts.FindByEmail(context, input.Email); err == nil {
		fieldErrors = append(fieldErrors, apperr.FieldError{Field: FieldEmail, Message: "A user with that email already exists"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperr.ValidationError("Validation failed", fieldErrors...)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_hash_failed: %w", err)
	}

	account := &Account{
		Username:     username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
	}
	profile := &Profile{}

	if err := service.accounts.CreateWithProfile(context, account, profile); err != nil {
		// A concurrent registration may still hit the unique index here.
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.ValidationError("Validation failed",
				apperr.FieldError{Field: FieldUsername, Message: "Username or email is already taken"})
		}
		return nil, fmt.Errorf("account_service_register_failed: %w", err)
	}

	return account, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username  string
	Password  string
	UserAgent string
	IPAddress string
}

// AuthSession represents a successfully established session.
type AuthSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	Account               *Account
}

/*
Login validates credentials and issues an access/refresh token pair.

Every attempt is recorded in the append-only audit log. Failed attempts
count toward a per IP+username lockout; once the limit is reached within
the cooloff window the call returns RATE_LIMITED before the password is
even evaluated.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *AuthSession: Transport-ready session identifiers
  - error: apperr.Unauthorized, apperr.RateLimited, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*AuthSession, error) {
	validator := (&validate.Validator{}).
		Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	failures, err := service.lockouts.Failures(context, input.IPAddress, input.Username)
	if err != nil {
		return nil, fmt.Errorf("account_service_lockout_check_failed: %w", err)
	}
	if failures >= service.config.LockoutFailureLimit {
		return nil, apperr.RateLimited(int(service.config.LockoutCooloff().Seconds()))
	}

	account, err := service.accounts.FindByUsername(context, input.Username)
	if err != nil || !account.IsActive || !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		accountID := ""
		if account != nil {
			accountID = account.ID
		}
		return nil, service.registerLoginFailure(context, input, accountID)
	}

	service.recordAttempt(context, &LoginAttempt{
		AccountID:  account.ID,
		Username:   input.Username,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Successful: true,
	})

	if err := service.lockouts.Reset(context, input.IPAddress, input.Username); err != nil {
		ctxutil.GetLogger(context).Error("login_lockout_reset_failed", "error", err)
	}

	loginTime := time.Now()
	if err := service.accounts.UpdateLastLogin(context, account.ID, loginTime); err != nil {
		return nil, fmt.Errorf("account_service_last_login_update_failed: %w", err)
	}
	account.LastLogin = &loginTime

	return service.issueSession(context, account, input.UserAgent, input.IPAddress)
}

// registerLoginFailure records the audit row, bumps the lockout counter, and
// decides between a plain 401 and the 429 lockout response.
func (service *Service) registerLoginFailure(context context.Context, input LoginInput, accountID string) error {
	service.recordAttempt(context, &LoginAttempt{
		AccountID:  accountID,
		Username:   input.Username,
		IPAddress:  input.IPAddress,
		UserAgent:  input.UserAgent,
		Successful: false,
	})
	service.collector.RecordLoginFailure()

	failures, err := service.lockouts.RegisterFailure(context, input.IPAddress, input.Username, service.config.LockoutCooloff())
	if err != nil {
		ctxutil.GetLogger(context).Error("login_lockout_register_failed", "error", err)
		return apperr.Unauthorized("Invalid login credentials")
	}

	if failures >= service.config.LockoutFailureLimit {
		service.collector.RecordLoginLockout()
		return apperr.RateLimited(int(service.config.LockoutCooloff().Seconds()))
	}

	return apperr.Unauthorized("Invalid login credentials")
}

// recordAttempt appends one audit row. Audit write failures are logged and
// never abort the authentication flow.
func (service *Service) recordAttempt(context context.Context, attempt *LoginAttempt) {
	if err := service.attempts.Create(context, attempt); err != nil {
		ctxutil.GetLogger(context).Error("login_attempt_audit_failed", "error", err)
	}
}

// issueSession creates a tracked refresh session plus a bound access token.
func (service *Service) issueSession(context context.Context, account *Account, userAgent, ipAddress string) (*AuthSession, error) {
	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("account_service_refresh_token_failed: %w", err)
	}

	expiresAt := time.Now().Add(service.config.RefreshTokenTTL())
	session := &Session{
		AccountID: account.ID,
		TokenHash: sec.HashToken(refreshToken),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
	}
	if err := service.sessions.Create(context, session); err != nil {
		return nil, fmt.Errorf("account_service_session_creation_failed: %w", err)
	}

	accessToken, err := service.tokens.GenerateAccessToken(service.identity(account, session.ID), service.config.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("account_service_token_generation_failed: %w", err)
	}

	return &AuthSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		Account:               account,
	}, nil
}

// # Session Management

/*
RefreshSession implements refresh token rotation.

The presented token's session is revoked before a new pair is issued, so a
replayed refresh token always fails.

Parameters:
  - context: context.Context
  - refreshToken: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *AuthSession: New session credentials
  - error: apperr.Unauthorized or storage failures
*/
func (service *Service) RefreshSession(context context.Context, refreshToken, userAgent, ipAddress string) (*AuthSession, error) {
	session, err := service.sessions.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	if err := service.sessions.Revoke(context, session.ID); err != nil {
		return nil, fmt.Errorf("account_service_refresh_revoke_failed: %w", err)
	}

	account, err := service.accounts.FindByID(context, session.AccountID)
	if err != nil || !account.IsActive {
		return nil, apperr.Unauthorized("Account not found or inactive")
	}

	return service.issueSession(context, account, userAgent, ipAddress)
}

/*
Logout revokes the session behind a refresh token. Unknown or already
revoked tokens are treated as success, which makes the operation idempotent.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: Revocation failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	session, err := service.sessions.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		return nil
	}

	if err := service.sessions.Revoke(context, session.ID); err != nil {
		return fmt.Errorf("account_service_logout_failed: %w", err)
	}

	return nil
}

// # Password Management

// ChangePasswordInput holds the data for an authenticated password change.
type ChangePasswordInput struct {
	OldPassword  string
	NewPassword  string
	NewPassword2 string
}

/*
ChangePassword re-hashes the account password after verifying the old one.

All sessions other than the caller's current one are revoked, so a stolen
refresh token stops working the moment the owner rotates their password.

Parameters:
  - context: context.Context
  - accountID: string
  - sessionID: string (the caller's current session, may be empty)
  - input: ChangePasswordInput

Returns:
  - error: apperr.ValidationError or storage failures
*/
func (service *Service) ChangePassword(context context.Context, accountID, sessionID string, input ChangePasswordInput) error {
	validator := (&validate.Validator{}).
		Required(FieldOldPassword, input.OldPassword).
		Required(FieldNewPassword, input.NewPassword)
	if input.NewPassword != "" {
		validator.Password(FieldNewPassword, input.NewPassword).
			Match(FieldPassword2, input.NewPassword, input.NewPassword2)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return fmt.Errorf("account_service_change_password_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(input.OldPassword, account.PasswordHash) {
		return apperr.ValidationError("Validation failed",
			apperr.FieldError{Field: FieldOldPassword, Message: "Old password is not correct"})
	}

	newHash, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("account_service_change_password_hash_failed: %w", err)
	}

	if err := service.accounts.UpdatePassword(context, accountID, newHash); err != nil {
		return fmt.Errorf("account_service_change_password_update_failed: %w", err)
	}

	if sessionID != "" {
		err = service.sessions.RevokeOthers(context, accountID, sessionID)
	} else {
		err = service.sessions.RevokeAll(context, accountID)
	}
	if err != nil {
		return fmt.Errorf("account_service_change_password_revoke_failed: %w", err)
	}

	return nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

When the email matches an active account, a single-use reset token is
stored in Redis and a password-reset email job is enqueued. When it does
not, the call still succeeds so responses stay byte-identical either way.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: apperr.ValidationError or infrastructure failures
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	validator := (&validate.Validator{}).Required(FieldEmail, email)
	if email != "" {
		validator.Email(FieldEmail, email)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	account, err := service.accounts.FindByEmail(context, email)
	if err != nil || !account.IsActive {
		return nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("account_service_reset_token_generation_failed: %w", err)
	}

	if err := service.resetTokens.Set(context, token, account.ID, service.config.ResetTokenTTL()); err != nil {
		return fmt.Errorf("account_service_reset_token_save_failed: %w", err)
	}

	payload := PasswordResetEmailPayload{
		Email:     account.Email,
		FirstName: account.FirstName,
		UID:       base64.RawURLEncoding.EncodeToString([]byte(account.ID)),
		Token:     token,
	}
	if err := service.tasks.EnqueueTask(context, jobs.TypeSendPasswordResetEmail, payload); err != nil {
		return fmt.Errorf("account_service_reset_email_enqueue_failed: %w", err)
	}

	return nil
}

// ConfirmResetInput holds the data for completing a password reset.
type ConfirmResetInput struct {
	UID       string
	Token     string
	Password  string
	Password2 string
}

/*
ConfirmPasswordReset completes the forgot-password flow.

The token must exist in Redis and its stored account must match the uid's
account. On success the password is re-hashed, the token is deleted so it
can never be replayed, and every session of the account is revoked.

Parameters:
  - context: context.Context
  - input: ConfirmResetInput

Returns:
  - error: apperr.InvalidToken, apperr.ValidationError, or storage failures
*/
func (service *Service) ConfirmPasswordReset(context context.Context, input ConfirmResetInput) error {
	validator := (&validate.Validator{}).
		Required(FieldUID, input.UID).
		Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password)
	if input.Password != "" {
		validator.Password(FieldPassword, input.Password).
			Match(FieldPassword2, input.Password, input.Password2)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	decodedUID, err := base64.RawURLEncoding.DecodeString(input.UID)
	if err != nil {
		return apperr.InvalidToken("Invalid reset link")
	}
	accountID := string(decodedUID)

	storedAccountID, err := service.resetTokens.Get(context, input.Token)
	if err != nil || storedAccountID != accountID {
		return apperr.InvalidToken("Invalid or expired reset token")
	}

	account, err := service.accounts.FindByID(context, accountID)
	if err != nil || !account.IsActive {
		return apperr.InvalidToken("Invalid or expired reset token")
	}

	newHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("account_service_reset_hash_failed: %w", err)
	}

	if err := service.accounts.UpdatePassword(context, account.ID, newHash); err != nil {
		return fmt.Errorf("account_service_reset_update_failed: %w", err)
	}

	if err := service.resetTokens.Delete(context, input.Token); err != nil {
		return fmt.Errorf("account_service_reset_token_delete_failed: %w", err)
	}

	if err := service.sessions.RevokeAll(context, account.ID); err != nil {
		return fmt.Errorf("account_service_reset_revoke_failed: %w", err)
	}

	return nil
}

// # Profile Management

// AccountProfile bundles the account with its 1:1 profile for read paths.
type AccountProfile struct {
	Account *Account
	Profile *Profile
}

/*
GetProfile returns the caller's account and profile.

Parameters:
  - context: context.Context
  - accountID: string

Returns:
  - *AccountProfile: Hydrated pair
  - error: Retrieval failures
*/
func (service *Service) GetProfile(context context.Context, accountID string) (*AccountProfile, error) {
	account, err := service.accounts.FindByID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("account_service_profile_account_lookup_failed: %w", err)
	}

	profile, err := service.profiles.FindByAccountID(context, accountID)
	if err != nil {
		return nil, fmt.Errorf("account_service_profile_lookup_failed: %w", err)
	}

	return &AccountProfile{Account: account, Profile: profile}, nil
}

// UpdateProfileInput holds the partial-update fields. Nil means "unchanged".
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Bio         *string
	AvatarURL   *string
	PhoneNumber *string
}

/*
UpdateProfile applies a partial update to the caller's own account names
and profile fields. The target is always the authenticated account.

Parameters:
  - context: context.Context
  - accountID: string
  - input: UpdateProfileInput

Returns:
  - *AccountProfile: Updated pair
  - error: apperr.ValidationError or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, accountID string, input UpdateProfileInput) (*AccountProfile, error) {
	validator := (&validate.Validator{}).
		MaxLen(FieldFirstName, pointer.Val(input.FirstName), MaxNameLength).
		MaxLen(FieldLastName, pointer.Val(input.LastName), MaxNameLength).
		MaxLen(FieldBio, pointer.Val(input.Bio), MaxBioLength).
		MaxLen(FieldAvatarURL, pointer.Val(input.AvatarURL), MaxAvatarURLLength).
		MaxLen(FieldPhoneNumber, pointer.Val(input.PhoneNumber), MaxPhoneNumberLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	current, err := service.GetProfile(context, accountID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil || input.LastName != nil {
		current.Account.FirstName = pointer.Fallback(input.FirstName, current.Account.FirstName)
		current.Account.LastName = pointer.Fallback(input.LastName, current.Account.LastName)
		if err := service.accounts.UpdateNames(context, current.Account); err != nil {
			return nil, fmt.Errorf("account_service_update_names_failed: %w", err)
		}
	}

	if input.Bio != nil || input.AvatarURL != nil || input.PhoneNumber != nil {
		current.Profile.Bio = pointer.Fallback(input.Bio, current.Profile.Bio)
		current.Profile.AvatarURL = pointer.Fallback(input.AvatarURL, current.Profile.AvatarURL)
		current.Profile.PhoneNumber = pointer.Fallback(input.PhoneNumber, current.Profile.PhoneNumber)
		if err := service.profiles.Update(context, current.Profile); err != nil {
			return nil, fmt.Errorf("account_service_update_profile_failed: %w", err)
		}
	}

	return current, nil
}

// # Audit Surfaces

/*
LoginAttempts returns the login audit log newest-first, for staff only.

Parameters:
  - context: context.Context
  - page: pagination.Params

Returns:
  - []LoginAttempt: One page of audit rows
  - int: Total number of rows
  - error: Query failures
*/
func (service *Service) LoginAttempts(context context.Context, page pagination.Params) ([]LoginAttempt, int, error) {
	return service.attempts.List(context, page)
}
