// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the identity, session and MFA layer served under /auth/v1.

It defines the core domain entities (User, Session, Factor) and the rules for
sign-up, password sign-in, refresh-token rotation, email change and TOTP
enrollment.

# Architecture

The wire format follows the managed-auth convention the front end was built
against: bare JSON documents, snake_case fields, tokens in the body.
*/
package auth

import (
	"strings"
	"time"

	"github.com/taibuivan/uservault/internal/platform/sec"
	"github.com/taibuivan/uservault/pkg/query"
)

// # Domain Entities

// User represents a registered UserVault account.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	NewEmail         string         `json:"new_email,omitempty"`
	PasswordHash     string         `json:"-"`
	Role             sec.UserRole   `json:"role"`
	UserMetadata     map[string]any `json:"user_metadata"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	Factors          []Factor       `json:"factors,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// MetadataString returns a string metadata value, or "".
func (user *User) MetadataString(key string) string {
	value, _ := user.UserMetadata[key].(string)
	return value
}

// Username resolves the first username-like metadata field.
func (user *User) Username() string {
	return query.FirstNonEmpty(
		user.MetadataString(MetaUsername),
		user.MetadataString(MetaUserName),
		user.MetadataString(MetaPreferredUsername),
	)
}

// HasVerifiedFactor reports whether any loaded factor is verified.
func (user *User) HasVerifiedFactor() bool {
	for _, factor := range user.Factors {
		if factor.Status == FactorStatusVerified {
			return true
		}
	}
	return false
}

// Session represents an active refresh-token session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	AAL       string    `json:"aal"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Factor is an enrolled second factor. Only TOTP is supported.
type Factor struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	FriendlyName string    `json:"friendly_name"`
	FactorType   string    `json:"factor_type"`
	Secret       string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenResponse is the session document returned by sign-up, sign-in,
// refresh and factor verification.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// EmailChange is a pending email change awaiting its verification code.
type EmailChange struct {
	NewEmail string `json:"new_email"`
	CodeHash string `json:"code_hash"`
}

// # Factor Status

const (
	FactorTypeTOTP         = "totp"
	FactorStatusUnverified = "unverified"
	FactorStatusVerified   = "verified"
)

// # Metadata Keys

const (
	MetaDisplayName       = "display_name"
	MetaUsername          = "username"
	MetaUserName          = "user_name"
	MetaPreferredUsername = "preferred_username"
)

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldRefreshToken = "refresh_token"
	FieldGrantType    = "grant_type"
	FieldCode         = "code"
	FieldFactorID     = "factor_id"
	FieldFriendlyName = "friendly_name"
	FieldFactorType   = "factor_type"
)

// normalizeEmail lowercases and trims an address before storage or lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
