// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

/*
Package accounts implements the account lifecycle and identity layer.

It defines the core domain entities (Account, Profile, Session, LoginAttempt)
and the logic for registration, authentication, lockout, password recovery,
and profile management.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to account identity.
*/
package accounts

import (
	"strings"
	"time"
)

// # Domain Entities

// Account represents a registered member of the platform.
type Account struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	IsActive     bool       `json:"is_active"`
	IsStaff      bool       `json:"is_staff"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	DateJoined   time.Time  `json:"date_joined"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName returns the display name assembled from first and last name.
func (account *Account) FullName() string {
	return strings.TrimSpace(account.FirstName + " " + account.LastName)
}

// Profile holds the supplementary, user-editable data attached 1:1 to an
// Account. It is created in the same transaction as its Account and can
// never exist without one.
type Profile struct {
	AccountID   string    `json:"-"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session represents an active refresh-token session. Refreshing rotates the
// session: the old row is revoked and a new one is created, so a refresh
// token can never be replayed.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	TokenHash string    `json:"-"` // Hashed value of the refresh token. Omitted for security.
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginAttempt is the immutable audit row written for every login, successful
// or not. AccountID is empty when the submitted username matched no account.
type LoginAttempt struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id,omitempty"`
	Username   string    `json:"username"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Successful bool      `json:"successful"`
	CreatedAt  time.Time `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the accounts domain.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldPassword2   = "password2"
	FieldOldPassword = "old_password"
	FieldNewPassword = "new_password"
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldRefresh     = "refresh"
	FieldUID         = "uid"
	FieldToken       = "token"
	FieldBio         = "bio"
	FieldAvatarURL   = "avatar_url"
	FieldPhoneNumber = "phone_number"
)
