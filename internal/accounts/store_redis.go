// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/launchkit/launchkit/internal/platform/apperr"
	"github.com/launchkit/launchkit/internal/platform/constants"
)

// # Reset Token Store

// RedisResetTokenRepository implements [ResetTokenRepository] on Redis.
//
// Each token lives under constants.RedisPrefixResetToken with the owning
// account ID as its value. Redis expiry enforces the token lifetime, and
// Delete after a successful confirm enforces single use.
type RedisResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository creates a Redis-backed reset token store.
func NewResetTokenRepository(client *redis.Client) *RedisResetTokenRepository {
	return &RedisResetTokenRepository{client: client}
}

func resetTokenKey(token string) string {
	return constants.RedisPrefixResetToken + token
}

// Set stores a reset token associated with an account for a limited duration.
func (repository *RedisResetTokenRepository) Set(context context.Context, token string, accountID string, ttl time.Duration) error {
	if err := repository.client.Set(context, resetTokenKey(token), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_set_failed: %w", err)
	}
	return nil
}

// Get retrieves the account ID associated with a reset token.
// Absent or expired tokens return apperr.NotFound.
func (repository *RedisResetTokenRepository) Get(context context.Context, token string) (string, error) {
	accountID, err := repository.client.Get(context, resetTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("reset_token")
		}
		return "", fmt.Errorf("redis_reset_token_get_failed: %w", err)
	}
	return accountID, nil
}

// Delete removes a reset token after successful use.
func (repository *RedisResetTokenRepository) Delete(context context.Context, token string) error {
	if err := repository.client.Del(context, resetTokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis_reset_token_delete_failed: %w", err)
	}
	return nil
}

// # Lockout Store

// RedisLockoutRepository implements [LockoutRepository] on Redis.
//
// Failure counters are keyed by client IP plus username, so a burst of
// failures against one account from one address cannot lock out other
// clients. The cooloff window starts with the first failure.
type RedisLockoutRepository struct {
	client *redis.Client
}

// NewLockoutRepository creates a Redis-backed lockout counter store.
func NewLockoutRepository(client *redis.Client) *RedisLockoutRepository {
	return &RedisLockoutRepository{client: client}
}

func lockoutKey(ipAddress, username string) string {
	return constants.RedisPrefixLockout + ipAddress + ":" + username
}

// RegisterFailure increments the failure counter and returns the new count.
func (repository *RedisLockoutRepository) RegisterFailure(context context.Context, ipAddress, username string, window time.Duration) (int, error) {
	key := lockoutKey(ipAddress, username)

	count, err := repository.client.Incr(context, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_lockout_incr_failed: %w", err)
	}

	if count == 1 {
		if err := repository.client.Expire(context, key, window).Err(); err != nil {
			return 0, fmt.Errorf("redis_lockout_expire_failed: %w", err)
		}
	}

	return int(count), nil
}

// Failures returns the current failure count, 0 when no window is open.
func (repository *RedisLockoutRepository) Failures(context context.Context, ipAddress, username string) (int, error) {
	count, err := repository.client.Get(context, lockoutKey(ipAddress, username)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis_lockout_get_failed: %w", err)
	}
	return count, nil
}

// Reset clears the counter after a successful login.
func (repository *RedisLockoutRepository) Reset(context context.Context, ipAddress, username string) error {
	if err := repository.client.Del(context, lockoutKey(ipAddress, username)).Err(); err != nil {
		return fmt.Errorf("redis_lockout_reset_failed: %w", err)
	}
	return nil
}
