// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"time"
)

// # Wire Types

// User is the account document returned by /auth/v1.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	NewEmail     string         `json:"new_email,omitempty"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
	Factors      []Factor       `json:"factors,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// MetadataString returns a string metadata value, or "".
func (user *User) MetadataString(key string) string {
	if user == nil {
		return ""
	}
	value, _ := user.UserMetadata[key].(string)
	return value
}

// HasVerifiedFactor reports whether any factor is verified.
func (user *User) HasVerifiedFactor() bool {
	if user == nil {
		return false
	}
	for _, factor := range user.Factors {
		if factor.Status == FactorStatusVerified {
			return true
		}
	}
	return false
}

// Factor is an enrolled MFA factor.
type Factor struct {
	ID           string    `json:"id"`
	FriendlyName string    `json:"friendly_name"`
	FactorType   string    `json:"factor_type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Enrollment is a pending TOTP factor.
type Enrollment struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	FriendlyName string `json:"friendly_name"`
	TOTP         struct {
		QRCode string `json:"qr_code"`
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	} `json:"totp"`
}

// Session is a signed-in session as persisted by the client.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Expiry is when the access token stops being accepted.
func (session *Session) Expiry() time.Time {
	return time.Unix(session.ExpiresAt, 0)
}

// Expired reports whether the access token expires within skew of now.
func (session *Session) Expired(now time.Time, skew time.Duration) bool {
	return !now.Add(skew).Before(session.Expiry())
}

// clone returns a shallow copy so callers cannot mutate client state.
func (session *Session) clone() *Session {
	if session == nil {
		return nil
	}
	copied := *session
	return &copied
}

// UserAttributes are the fields PUT /auth/v1/user accepts.
type UserAttributes struct {
	Email    *string        `json:"email,omitempty"`
	Password *string        `json:"password,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// AssuranceLevel is the session's current and required MFA level.
type AssuranceLevel struct {
	CurrentLevel string
	NextLevel    string
}

// NeedsChallenge reports whether the session must still pass MFA.
func (level AssuranceLevel) NeedsChallenge() bool {
	return level.CurrentLevel == AAL1 && level.NextLevel == AAL2
}

// # Auth Events

// AuthEvent names a session transition.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
	EventMFAVerified    AuthEvent = "MFA_CHALLENGE_VERIFIED"
)

// Listener receives session transitions. session is nil after sign-out.
type Listener func(event AuthEvent, session *Session)

const (
	AAL1 = "aal1"
	AAL2 = "aal2"

	FactorStatusVerified = "verified"
)
