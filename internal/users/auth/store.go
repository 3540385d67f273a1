// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity (factors not loaded)
		  - error: apperr.NotFound or database failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given (normalized) email.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new account together with its public profile row.

		Parameters:
		  - context: context.Context
		  - user: *User
		  - username: string (normalized, unique)

		Returns:
		  - error: apperr.Conflict on duplicate email or username
	*/
	Create(context context.Context, user *User, username string) error

	/*
		UpdateMetadata replaces the user's metadata document.
	*/
	UpdateMetadata(context context.Context, userID string, metadata map[string]any) error

	/*
		UpdateEmail sets a new confirmed email address.

		Returns:
		  - error: apperr.Conflict if the address belongs to another account
	*/
	UpdateEmail(context context.Context, userID, email string) error

	/*
		UpdatePassword replaces only the user's password hash.
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		TouchSignIn records a successful sign-in.
	*/
	TouchSignIn(context context.Context, userID string, at time.Time) error
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new session for an authenticated sign-in.
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the active, unexpired session matching the hash.

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound when absent, revoked or expired
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		Revoke marks a specific session as permanently invalidated.
	*/
	Revoke(context context.Context, sessionID string) error

	/*
		RevokeAll revokes every active session belonging to the userID.
	*/
	RevokeAll(context context.Context, userID string) error
}

// # Factor Data Access

// FactorRepository defines the data access contract for MFA factors.
type FactorRepository interface {

	/*
		ListByUser returns every factor of the user, oldest first.
	*/
	ListByUser(context context.Context, userID string) ([]Factor, error)

	/*
		FindByID returns the user's factor with the given ID.

		Returns:
		  - error: apperr.NotFound when the factor does not belong to userID
	*/
	FindByID(context context.Context, userID, factorID string) (*Factor, error)

	/*
		Create persists a new unverified factor.
	*/
	Create(context context.Context, factor *Factor) error

	/*
		MarkVerified flips the factor status to verified.
	*/
	MarkVerified(context context.Context, factorID string) error

	/*
		Delete removes one factor of the user.
	*/
	Delete(context context.Context, userID, factorID string) error

	/*
		DeleteAllForUser removes every factor of the user.

		Returns:
		  - int: Number of factors removed
	*/
	DeleteAllForUser(context context.Context, userID string) (int, error)
}

// # Volatile Data Access

// EmailChangeRepository stores pending email changes keyed by user.
type EmailChangeRepository interface {

	/*
		Set stores the pending change, replacing any earlier one.
	*/
	Set(context context.Context, userID string, change EmailChange, ttl time.Duration) error

	/*
		Get returns the pending change.

		Returns:
		  - error: apperr.NotFound when absent or expired
	*/
	Get(context context.Context, userID string) (*EmailChange, error)

	/*
		Delete removes the pending change after use.
	*/
	Delete(context context.Context, userID string) error
}
