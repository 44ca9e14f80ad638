// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package accounts

// # Authentication Constraints

const (
	// RefreshTokenLength is the byte length of the random refresh token.
	RefreshTokenLength = 32

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// MaxUsernameLength caps usernames at registration.
	MaxUsernameLength = 150

	// MaxNameLength caps first and last names at registration and update.
	MaxNameLength = 150

	// MaxBioLength caps the free-text biography on the profile.
	MaxBioLength = 500

	// MaxAvatarURLLength caps the stored avatar URL.
	MaxAvatarURLLength = 500

	// MaxPhoneNumberLength caps the stored phone number.
	MaxPhoneNumberLength = 32
)

// # Client Messages

const (
	// ResetRequestedMessage is returned by the password-reset request
	// endpoint. It MUST be byte-identical whether or not the account
	// exists, to prevent email enumeration.
	ResetRequestedMessage = "Password reset email sent if the account exists."
)
