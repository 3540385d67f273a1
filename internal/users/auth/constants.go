// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// AccessTokenTTL is the duration a JWT access token remains valid.
	AccessTokenTTL = 1 * time.Hour

	// RefreshTokenTTL is the duration a session/refresh token remains valid.
	RefreshTokenTTL = 30 * 24 * time.Hour

	// RefreshTokenLength is the byte length of the random secure token.
	RefreshTokenLength = 32

	// EmailChangeTTL is how long an email-change verification code stays valid.
	EmailChangeTTL = 15 * time.Minute

	// EmailChangeCodeDigits is the length of the email-change verification code.
	EmailChangeCodeDigits = 6

	// MinPasswordLength is the shortest accepted password.
	MinPasswordLength = 8

	// TOTPIssuer labels enrolled factors in authenticator apps.
	TOTPIssuer = "UserVault"
)
