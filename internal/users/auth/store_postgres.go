// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/database/schema"
	"github.com/taibuivan/uservault/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, password_hash, role, user_metadata, email_confirmed_at, last_sign_in_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.UserMetadata,
		&user.EmailConfirmedAt,
		&user.LastSignInAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.UserMetadata == nil {
		user.UserMetadata = map[string]any{}
	}
	return user, nil
}

/*
Create persists a new account and its public profile in one transaction.

Description: The profile row carries the normalized username and the
display name from metadata.

Returns:
  - error: apperr.Conflict on a taken email or username
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User, username string) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	const insertUser = `
		INSERT INTO auth.users (
			id, email, password_hash, role, user_metadata, email_confirmed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = transaction.Exec(context, insertUser,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.UserMetadata,
		user.EmailConfirmedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("User already registered")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	insertProfile := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3)`,
		schema.Profile.Table,
		schema.List(schema.Profile.UserID, schema.Profile.Username, schema.Profile.DisplayName),
	)

	if _, err = transaction.Exec(context, insertProfile, user.ID, username, user.MetadataString(MetaDisplayName)); err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Username is already taken")
		}
		return dberr.Wrap(err, "Profile", "postgres_profile_repo_create")
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_user_repo_commit_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves a user by their unique email address.
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM auth.users WHERE lower(email) = lower($1) AND deleted_at IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_email")
	}
	return user, nil
}

/*
FindByID retrieves a user by their primary key.
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM auth.users WHERE id = $1 AND deleted_at IS NULL`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_id")
	}
	return user, nil
}

// UpdateMetadata replaces the metadata document.
func (repository *PostgresUserRepository) UpdateMetadata(context context.Context, userID string, metadata map[string]any) error {
	const query = `UPDATE auth.users SET user_metadata = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	return repository.execOne(context, "postgres_user_repo_update_metadata", query, userID, metadata)
}

// UpdateEmail sets a confirmed address.
func (repository *PostgresUserRepository) UpdateEmail(context context.Context, userID, email string) error {
	const query = `
		UPDATE auth.users
		SET email = $2, email_confirmed_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	return repository.execOne(context, "postgres_user_repo_update_email", query, userID, email)
}

// UpdatePassword replaces the password hash.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `UPDATE auth.users SET password_hash = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`
	return repository.execOne(context, "postgres_user_repo_update_password", query, userID, newHash)
}

// TouchSignIn records the last successful sign-in.
func (repository *PostgresUserRepository) TouchSignIn(context context.Context, userID string, at time.Time) error {
	const query = `UPDATE auth.users SET last_sign_in_at = $2 WHERE id = $1`
	return repository.execOne(context, "postgres_user_repo_touch_signin", query, userID, at)
}

func (repository *PostgresUserRepository) execOne(context context.Context, action, query string, args ...any) error {
	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return dberr.Wrap(err, "User", action)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new refresh session.
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO auth.sessions (id, user_id, token_hash, aal, user_agent, ip_address, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.AAL,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}
	return nil
}

/*
FindByTokenHash returns the active session matching the refresh token hash.
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	const query = `
		SELECT id, user_id, token_hash, aal, user_agent, ip_address, expires_at, is_revoked, created_at
		FROM auth.sessions
		WHERE token_hash = $1 AND is_revoked = false AND expires_at > now()`

	session := &Session{}
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.AAL,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.IsRevoked,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Session", "postgres_session_repo_find")
	}
	return session, nil
}

// Revoke invalidates a single session.
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	const query = `UPDATE auth.sessions SET is_revoked = true, revoked_at = now() WHERE id = $1 AND is_revoked = false`

	if _, err := repository.pool.Exec(context, query, sessionID); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return nil
}

// RevokeAll invalidates every active session of the user.
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) error {
	const query = `UPDATE auth.sessions SET is_revoked = true, revoked_at = now() WHERE user_id = $1 AND is_revoked = false`

	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	return nil
}

// # Factor Repository

// PostgresFactorRepository implements the FactorRepository interface.
type PostgresFactorRepository struct {
	pool *pgxpool.Pool
}

// NewFactorRepository creates a new PostgreSQL implementation of the FactorRepository.
func NewFactorRepository(pool *pgxpool.Pool) *PostgresFactorRepository {
	return &PostgresFactorRepository{pool: pool}
}

func scanFactor(row pgx.Row) (Factor, error) {
	var factor Factor
	err := row.Scan(
		&factor.ID,
		&factor.UserID,
		&factor.FriendlyName,
		&factor.FactorType,
		&factor.Secret,
		&factor.Status,
		&factor.CreatedAt,
		&factor.UpdatedAt,
	)
	return factor, err
}

/*
ListByUser returns the user's factors ordered by enrollment time.
*/
func (repository *PostgresFactorRepository) ListByUser(context context.Context, userID string) ([]Factor, error) {
	f := schema.MFAFactor
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		schema.List(f.Columns()...), f.Table, f.UserID, f.CreatedAt)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_factor_repo_list_failed: %w", err)
	}
	defer rows.Close()

	factors := []Factor{}
	for rows.Next() {
		factor, err := scanFactor(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_factor_repo_scan_failed: %w", err)
		}
		factors = append(factors, factor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_factor_repo_rows_failed: %w", err)
	}
	return factors, nil
}

/*
FindByID returns a factor scoped to its owner.
*/
func (repository *PostgresFactorRepository) FindByID(context context.Context, userID, factorID string) (*Factor, error) {
	f := schema.MFAFactor
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		schema.List(f.Columns()...), f.Table, f.ID, f.UserID)

	factor, err := scanFactor(repository.pool.QueryRow(context, query, factorID, userID))
	if err != nil {
		return nil, dberr.Wrap(err, "Factor", "postgres_factor_repo_find")
	}
	return &factor, nil
}

/*
Create persists a new factor.
*/
func (repository *PostgresFactorRepository) Create(context context.Context, factor *Factor) error {
	f := schema.MFAFactor
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.Table, schema.List(f.Columns()...))

	now := time.Now()
	factor.CreatedAt = now
	factor.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		factor.ID,
		factor.UserID,
		factor.FriendlyName,
		factor.FactorType,
		factor.Secret,
		factor.Status,
		factor.CreatedAt,
		factor.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Factor", "postgres_factor_repo_create")
	}
	return nil
}

// MarkVerified flips a factor to verified.
func (repository *PostgresFactorRepository) MarkVerified(context context.Context, factorID string) error {
	f := schema.MFAFactor
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1`,
		f.Table, f.Status, f.UpdatedAt, f.ID)

	if _, err := repository.pool.Exec(context, query, factorID, FactorStatusVerified); err != nil {
		return fmt.Errorf("postgres_factor_repo_verify_failed: %w", err)
	}
	return nil
}

// Delete removes one of the user's factors.
func (repository *PostgresFactorRepository) Delete(context context.Context, userID, factorID string) error {
	f := schema.MFAFactor
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, f.Table, f.ID, f.UserID)

	tag, err := repository.pool.Exec(context, query, factorID, userID)
	if err != nil {
		return fmt.Errorf("postgres_factor_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Factor")
	}
	return nil
}

// DeleteAllForUser removes every factor of the user.
func (repository *PostgresFactorRepository) DeleteAllForUser(context context.Context, userID string) (int, error) {
	f := schema.MFAFactor
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, f.Table, f.UserID)

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres_factor_repo_delete_all_failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
