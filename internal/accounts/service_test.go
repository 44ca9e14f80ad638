// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package accounts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/platform/apperr"
	"github.com/launchkit/launchkit/internal/platform/config"
	"github.com/launchkit/launchkit/internal/platform/sec"
	"github.com/launchkit/launchkit/pkg/pagination"
	"github.com/launchkit/launchkit/pkg/pointer"
	"github.com/launchkit/launchkit/pkg/uuid"
)

// # Fakes

type fakeAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*Account
	profiles map[string]*Profile
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{
		accounts: make(map[string]*Account),
		profiles: make(map[string]*Profile),
	}
}

func (repository *fakeAccountRepository) FindByID(_ context.Context, id string) (*Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if account, ok := repository.accounts[id]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, apperr.NotFound("account")
}

func (repository *fakeAccountRepository) FindByUsername(_ context.Context, username string) (*Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, account := range repository.accounts {
		if account.Username == username {
			copied := *account
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("account")
}

func (repository *fakeAccountRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, account := range repository.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("account")
}

func (repository *fakeAccountRepository) CreateWithProfile(_ context.Context, account *Account, profile *Profile) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if account.ID == "" {
		account.ID = uuid.New()
	}
	account.DateJoined = time.Now()
	account.UpdatedAt = account.DateJoined
	profile.AccountID = account.ID
	profile.CreatedAt = account.DateJoined
	profile.UpdatedAt = account.DateJoined

	copiedAccount := *account
	copiedProfile := *profile
	repository.accounts[account.ID] = &copiedAccount
	repository.profiles[account.ID] = &copiedProfile
	return nil
}

func (repository *fakeAccountRepository) UpdateNames(_ context.Context, account *Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, ok := repository.accounts[account.ID]
	if !ok {
		return apperr.NotFound("account")
	}
	stored.FirstName = account.FirstName
	stored.LastName = account.LastName
	stored.UpdatedAt = time.Now()
	return nil
}

func (repository *fakeAccountRepository) UpdatePassword(_ context.Context, accountID, newHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, ok := repository.accounts[accountID]
	if !ok {
		return apperr.NotFound("account")
	}
	stored.PasswordHash = newHash
	return nil
}

func (repository *fakeAccountRepository) UpdateLastLogin(_ context.Context, accountID string, loginTime time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, ok := repository.accounts[accountID]
	if !ok {
		return apperr.NotFound("account")
	}
	stored.LastLogin = &loginTime
	return nil
}

func (repository *fakeAccountRepository) FindByAccountID(_ context.Context, accountID string) (*Profile, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if profile, ok := repository.profiles[accountID]; ok {
		copied := *profile
		return &copied, nil
	}
	return nil, apperr.NotFound("profile")
}

func (repository *fakeAccountRepository) Update(_ context.Context, profile *Profile) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	stored, ok := repository.profiles[profile.AccountID]
	if !ok {
		return apperr.NotFound("profile")
	}
	stored.Bio = profile.Bio
	stored.AvatarURL = profile.AvatarURL
	stored.PhoneNumber = profile.PhoneNumber
	stored.UpdatedAt = time.Now()
	return nil
}

type fakeSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: make(map[string]*Session)}
}

func (repository *fakeSessionRepository) Create(_ context.Context, session *Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	copied := *session
	repository.sessions[session.ID] = &copied
	return nil
}

func (repository *fakeSessionRepository) FindByTokenHash(_ context.Context, tokenHash string) (*Session, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, session := range repository.sessions {
		if session.TokenHash == tokenHash && !session.IsRevoked && session.ExpiresAt.After(time.Now()) {
			copied := *session
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("session")
}

func (repository *fakeSessionRepository) Revoke(_ context.Context, sessionID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if session, ok := repository.sessions[sessionID]; ok {
		session.IsRevoked = true
	}
	return nil
}

func (repository *fakeSessionRepository) RevokeAll(_ context.Context, accountID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, session := range repository.sessions {
		if session.AccountID == accountID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repository *fakeSessionRepository) RevokeOthers(_ context.Context, accountID, currentSessionID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, session := range repository.sessions {
		if session.AccountID == accountID && session.ID != currentSessionID {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repository *fakeSessionRepository) DeleteExpired(_ context.Context) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	removed := 0
	for id, session := range repository.sessions {
		if !session.ExpiresAt.After(time.Now()) {
			delete(repository.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (repository *fakeSessionRepository) active(accountID string) int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	count := 0
	for _, session := range repository.sessions {
		if session.AccountID == accountID && !session.IsRevoked {
			count++
		}
	}
	return count
}

type fakeAttemptRepository struct {
	mu       sync.Mutex
	attempts []LoginAttempt
}

func (repository *fakeAttemptRepository) Create(_ context.Context, attempt *LoginAttempt) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if attempt.ID == "" {
		attempt.ID = uuid.New()
	}
	attempt.CreatedAt = time.Now()
	repository.attempts = append(repository.attempts, *attempt)
	return nil
}

func (repository *fakeAttemptRepository) List(_ context.Context, page pagination.Params) ([]LoginAttempt, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return append([]LoginAttempt(nil), repository.attempts...), len(repository.attempts), nil
}

type fakeResetTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeResetTokenRepository() *fakeResetTokenRepository {
	return &fakeResetTokenRepository{tokens: make(map[string]string)}
}

func (repository *fakeResetTokenRepository) Set(_ context.Context, token, accountID string, _ time.Duration) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.tokens[token] = accountID
	return nil
}

func (repository *fakeResetTokenRepository) Get(_ context.Context, token string) (string, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if accountID, ok := repository.tokens[token]; ok {
		return accountID, nil
	}
	return "", apperr.NotFound("reset_token")
}

func (repository *fakeResetTokenRepository) Delete(_ context.Context, token string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.tokens, token)
	return nil
}

type fakeLockoutRepository struct {
	mu       sync.Mutex
	counters map[string]int
}

func newFakeLockoutRepository() *fakeLockoutRepository {
	return &fakeLockoutRepository{counters: make(map[string]int)}
}

func (repository *fakeLockoutRepository) RegisterFailure(_ context.Context, ipAddress, username string, _ time.Duration) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.counters[ipAddress+":"+username]++
	return repository.counters[ipAddress+":"+username], nil
}

func (repository *fakeLockoutRepository) Failures(_ context.Context, ipAddress, username string) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return repository.counters[ipAddress+":"+username], nil
}

func (repository *fakeLockoutRepository) Reset(_ context.Context, ipAddress, username string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.counters, ipAddress+":"+username)
	return nil
}

// fakeTokenProvider emits an inspectable token encoding the identity.
type fakeTokenProvider struct{}

func (fakeTokenProvider) GenerateAccessToken(identity sec.TokenIdentity, _ time.Duration) (string, error) {
	return fmt.Sprintf("access:%s:%s:%t", identity.UserID, identity.SessionID, identity.IsStaff), nil
}

type enqueuedTask struct {
	JobType string
	Payload json.RawMessage
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []enqueuedTask
}

func (enqueuer *fakeEnqueuer) EnqueueTask(_ context.Context, jobType string, payload any) error {
	enqueuer.mu.Lock()
	defer enqueuer.mu.Unlock()
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	enqueuer.tasks = append(enqueuer.tasks, enqueuedTask{JobType: jobType, Payload: encoded})
	return nil
}

// # Test Harness

type serviceFixture struct {
	service  *Service
	accounts *fakeAccountRepository
	sessions *fakeSessionRepository
	attempts *fakeAttemptRepository
	resets   *fakeResetTokenRepository
	lockouts *fakeLockoutRepository
	enqueuer *fakeEnqueuer
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	fixture := &serviceFixture{
		accounts: newFakeAccountRepository(),
		sessions: newFakeSessionRepository(),
		attempts: &fakeAttemptRepository{},
		resets:   newFakeResetTokenRepository(),
		lockouts: newFakeLockoutRepository(),
		enqueuer: &fakeEnqueuer{},
	}

	cfg := &config.Config{
		AccessTokenTTLMinutes: 5,
		RefreshTokenTTLHours:  24,
		ResetTokenTTLMinutes:  60,
		LockoutFailureLimit:   3,
		LockoutCooloffMinutes: 60,
	}

	fixture.service = NewService(
		fixture.accounts,
		fixture.accounts,
		fixture.sessions,
		fixture.attempts,
		fixture.resets,
		fixture.lockouts,
		fakeTokenProvider{},
		fixture.enqueuer,
		nil,
		cfg,
	)
	return fixture
}

func (fixture *serviceFixture) register(t *testing.T, username, email, password string) *Account {
	t.Helper()
	account, err := fixture.service.Register(context.Background(), RegisterInput{
		Username:  username,
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  password,
		Password2: password,
	})
	require.NoError(t, err)
	return account
}

func loginInput(username, password string) LoginInput {
	return LoginInput{
		Username:  username,
		Password:  password,
		UserAgent: "go-test",
		IPAddress: "203.0.113.7",
	}
}

// # Registration

func TestRegisterCreatesAccountWithProfile(t *testing.T) {
	fixture := newServiceFixture(t)

	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	require.NotEmpty(t, account.ID)
	assert.True(t, account.IsActive)
	assert.False(t, account.IsStaff)
	assert.NotEqual(t, "correct horse battery", account.PasswordHash)

	profile, err := fixture.accounts.FindByAccountID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, profile.AccountID)
}

func TestRegisterNormalizesUsername(t *testing.T) {
	fixture := newServiceFixture(t)

	// U+FF41 FULLWIDTH LATIN SMALL LETTER A folds to "a" under NFKC.
	account := fixture.register(t, "ａda", "ada@example.com", "correct horse battery")

	assert.Equal(t, "ada", account.Username)
}

func TestRegisterDuplicateReportsFieldErrors(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	_, err := fixture.service.Register(context.Background(), RegisterInput{
		Username:  "ada",
		Email:     "ada@example.com",
		Password:  "correct horse battery",
		Password2: "correct horse battery",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	fields := make([]string, 0, len(appErr.Details))
	for _, detail := range appErr.Details {
		fields = append(fields, detail.Field)
	}
	assert.Contains(t, fields, FieldUsername)
	assert.Contains(t, fields, FieldEmail)
}

func TestRegisterRejectsWeakPasswords(t *testing.T) {
	fixture := newServiceFixture(t)

	tests := []struct {
		name     string
		password string
	}{
		{name: "too short", password: "short"},
		{name: "entirely numeric", password: "4815162342"},
		{name: "common password", password: "password1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := fixture.service.Register(context.Background(), RegisterInput{
				Username:  "grace",
				Email:     "grace@example.com",
				Password:  test.password,
				Password2: test.password,
			})

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestRegisterRejectsPasswordMismatch(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.Register(context.Background(), RegisterInput{
		Username:  "grace",
		Email:     "grace@example.com",
		Password:  "correct horse battery",
		Password2: "different horse battery",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// # Login & Lockout

func TestLoginSuccessIssuesTokensAndAudits(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	session, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(session.AccessToken, "access:"+account.ID+":"))
	assert.NotEmpty(t, session.RefreshToken)
	require.NotNil(t, session.Account.LastLogin)

	require.Len(t, fixture.attempts.attempts, 1)
	assert.True(t, fixture.attempts.attempts[0].Successful)
	assert.Equal(t, account.ID, fixture.attempts.attempts[0].AccountID)
}

func TestLoginWrongPasswordIsUnauthorizedAndAudited(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	_, err := fixture.service.Login(context.Background(), loginInput("ada", "wrong password"))

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)

	require.Len(t, fixture.attempts.attempts, 1)
	assert.False(t, fixture.attempts.attempts[0].Successful)
}

func TestLoginUnknownUsernameMatchesWrongPasswordResponse(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	_, unknownErr := fixture.service.Login(context.Background(), loginInput("nobody", "whatever passes"))
	_, wrongErr := fixture.service.Login(context.Background(), loginInput("ada", "wrong password"))

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, wrongErr.Error(), unknownErr.Error())
	assert.Equal(t, apperr.As(wrongErr).Code, apperr.As(unknownErr).Code)
}

func TestLoginLockoutOnLimitThAttempt(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	var err error
	for i := 0; i < 2; i++ {
		_, err = fixture.service.Login(context.Background(), loginInput("ada", "wrong password"))
		assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
	}

	// Third failure reaches the limit and flips to the lockout response.
	_, err = fixture.service.Login(context.Background(), loginInput("ada", "wrong password"))
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "RATE_LIMITED", appErr.Code)

	// While locked out even the correct password is rejected up front.
	_, err = fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	assert.Equal(t, "RATE_LIMITED", apperr.As(err).Code)
}

func TestLoginLockoutIsScopedToIPAndUsername(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	for i := 0; i < 3; i++ {
		_, _ = fixture.service.Login(context.Background(), loginInput("ada", "wrong password"))
	}

	otherIP := loginInput("ada", "correct horse battery")
	otherIP.IPAddress = "198.51.100.9"

	_, err := fixture.service.Login(context.Background(), otherIP)
	assert.NoError(t, err)
}

func TestLoginSuccessResetsLockoutCounter(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	for i := 0; i < 2; i++ {
		_, _ = fixture.service.Login(context.Background(), loginInput("ada", "wrong password"))
	}

	_, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	require.NoError(t, err)

	failures, err := fixture.lockouts.Failures(context.Background(), "203.0.113.7", "ada")
	require.NoError(t, err)
	assert.Zero(t, failures)
}

func TestLoginInactiveAccountIsRejected(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")
	fixture.accounts.accounts[account.ID].IsActive = false

	_, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

// # Refresh & Logout

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	first, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	require.NoError(t, err)

	second, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "go-test", "203.0.113.7")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-out token must never work again.
	_, err = fixture.service.RefreshSession(context.Background(), first.RefreshToken, "go-test", "203.0.113.7")
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

func TestLogoutIsIdempotent(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	session, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, fixture.service.Logout(context.Background(), session.RefreshToken))
	require.NoError(t, fixture.service.Logout(context.Background(), "never-issued"))

	_, err = fixture.service.RefreshSession(context.Background(), session.RefreshToken, "go-test", "203.0.113.7")
	assert.Error(t, err)
}

// # Password Change

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	err := fixture.service.ChangePassword(context.Background(), account.ID, "", ChangePasswordInput{
		OldPassword:  "wrong password",
		NewPassword:  "totally new secret",
		NewPassword2: "totally new secret",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, FieldOldPassword, appErr.Details[0].Field)
}

func TestChangePasswordInvalidatesOldCredentialAndOtherSessions(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	current, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	require.NoError(t, err)
	other, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	require.NoError(t, err)

	currentSessionID := strings.Split(current.AccessToken, ":")[2]
	err = fixture.service.ChangePassword(context.Background(), account.ID, currentSessionID, ChangePasswordInput{
		OldPassword:  "correct horse battery",
		NewPassword:  "totally new secret",
		NewPassword2: "totally new secret",
	})
	require.NoError(t, err)

	// Old password no longer authenticates.
	_, err = fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// The other session's refresh token was revoked, the current one survived.
	_, err = fixture.service.RefreshSession(context.Background(), other.RefreshToken, "go-test", "203.0.113.7")
	assert.Error(t, err)
	_, err = fixture.service.RefreshSession(context.Background(), current.RefreshToken, "go-test", "203.0.113.7")
	assert.NoError(t, err)
}

// # Password Reset

func TestRequestPasswordResetEnqueuesJobForKnownAccount(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	require.NoError(t, fixture.service.RequestPasswordReset(context.Background(), "ada@example.com"))

	require.Len(t, fixture.enqueuer.tasks, 1)
	assert.Equal(t, "send_password_reset_email", fixture.enqueuer.tasks[0].JobType)

	var payload PasswordResetEmailPayload
	require.NoError(t, json.Unmarshal(fixture.enqueuer.tasks[0].Payload, &payload))
	assert.Equal(t, "ada@example.com", payload.Email)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString([]byte(account.ID)), payload.UID)

	storedID, err := fixture.resets.Get(context.Background(), payload.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, storedID)
}

func TestRequestPasswordResetSilentForUnknownAccount(t *testing.T) {
	fixture := newServiceFixture(t)

	require.NoError(t, fixture.service.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Empty(t, fixture.enqueuer.tasks)
	assert.Empty(t, fixture.resets.tokens)
}

func TestConfirmPasswordResetHappyPath(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	session, err := fixture.service.Login(context.Background(), loginInput("ada", "correct horse battery"))
	require.NoError(t, err)

	require.NoError(t, fixture.service.RequestPasswordReset(context.Background(), "ada@example.com"))
	var payload PasswordResetEmailPayload
	require.NoError(t, json.Unmarshal(fixture.enqueuer.tasks[0].Payload, &payload))

	err = fixture.service.ConfirmPasswordReset(context.Background(), ConfirmResetInput{
		UID:       payload.UID,
		Token:     payload.Token,
		Password:  "totally new secret",
		Password2: "totally new secret",
	})
	require.NoError(t, err)

	// Every session is revoked and the old refresh token is dead.
	assert.Zero(t, fixture.sessions.active(account.ID))
	_, err = fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(session.RefreshToken))
	assert.Error(t, err)

	// The new password authenticates.
	_, err = fixture.service.Login(context.Background(), loginInput("ada", "totally new secret"))
	assert.NoError(t, err)

	err = fixture.service.ConfirmPasswordReset(context.Background(), ConfirmResetInput{
		UID:       payload.UID,
		Token:     payload.Token,
		Password:  "yet another secret",
		Password2: "yet another secret",
	})
	assert.Equal(t, "INVALID_TOKEN", apperr.As(err).Code)
}

func TestConfirmPasswordResetTokenBoundToAccount(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "ada", "ada@example.com", "correct horse battery")
	mallory := fixture.register(t, "mallory", "mallory@example.com", "correct horse battery")

	require.NoError(t, fixture.service.RequestPasswordReset(context.Background(), "ada@example.com"))
	var payload PasswordResetEmailPayload
	require.NoError(t, json.Unmarshal(fixture.enqueuer.tasks[0].Payload, &payload))

	// Ada's token presented with Mallory's uid must be rejected.
	err := fixture.service.ConfirmPasswordReset(context.Background(), ConfirmResetInput{
		UID:       base64.RawURLEncoding.EncodeToString([]byte(mallory.ID)),
		Token:     payload.Token,
		Password:  "totally new secret",
		Password2: "totally new secret",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "INVALID_TOKEN", appErr.Code)

	// Mallory's password is untouched.
	_, err = fixture.service.Login(context.Background(), loginInput("mallory", "correct horse battery"))
	assert.NoError(t, err)
}

func TestConfirmPasswordResetRejectsMalformedUID(t *testing.T) {
	fixture := newServiceFixture(t)

	err := fixture.service.ConfirmPasswordReset(context.Background(), ConfirmResetInput{
		UID:       "not base64!!",
		Token:     "whatever",
		Password:  "totally new secret",
		Password2: "totally new secret",
	})

	assert.Equal(t, "INVALID_TOKEN", apperr.As(err).Code)
}

// # Profile

func TestUpdateProfilePartialUpdate(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	updated, err := fixture.service.UpdateProfile(context.Background(), account.ID, UpdateProfileInput{
		Bio:       pointer.To("First programmer."),
		FirstName: pointer.To("Augusta"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Augusta", updated.Account.FirstName)
	assert.Equal(t, "Lovelace", updated.Account.LastName)
	assert.Equal(t, "First programmer.", updated.Profile.Bio)
	assert.Empty(t, updated.Profile.PhoneNumber)
}

func TestGetProfileReturnsAccountAndProfile(t *testing.T) {
	fixture := newServiceFixture(t)
	account := fixture.register(t, "ada", "ada@example.com", "correct horse battery")

	pair, err := fixture.service.GetProfile(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, pair.Account.ID)
	assert.Equal(t, account.ID, pair.Profile.AccountID)
}
