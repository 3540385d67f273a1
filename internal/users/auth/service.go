// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/sec"
	"github.com/taibuivan/uservault/pkg/query"
	"github.com/taibuivan/uservault/pkg/slug"
	"github.com/taibuivan/uservault/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for signing access tokens.
type TokenProvider interface {
	GenerateAccessToken(input sec.TokenInput, timeToLive time.Duration) (string, error)
}

// Service implements the authentication use cases behind /auth/v1.
type Service struct {
	userRepository        UserRepository
	sessionRepository     SessionRepository
	factorRepository      FactorRepository
	emailChangeRepository EmailChangeRepository
	tokenProvider         TokenProvider
	notifier              Notifier
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	factorRepo FactorRepository,
	emailChangeRepo EmailChangeRepository,
	tokenProv TokenProvider,
	notifier Notifier,
) *Service {
	return &Service{
		userRepository:        userRepo,
		sessionRepository:     sessionRepo,
		factorRepository:      factorRepo,
		emailChangeRepository: emailChangeRepo,
		tokenProvider:         tokenProv,
		notifier:              notifier,
	}
}

// # Registration Flow

// SignUpInput holds the data required to enroll a new member.
type SignUpInput struct {
	Email     string
	Password  string
	Data      map[string]any
	UserAgent string
	IPAddress string
}

/*
SignUp creates an account and its profile, then signs the new user in.

Description: The username is taken from the metadata username fields, falling
back to the email local part, and normalized to a URL slug. Accounts are
auto-confirmed.

Returns:
  - *TokenResponse: A fresh aal1 session
  - error: Conflict (email or username taken), validation or storage errors
*/
func (service *Service) SignUp(context context.Context, input SignUpInput) (*TokenResponse, error) {
	email := normalizeEmail(input.Email)

	if _, err := service.userRepository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("User already registered")
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_signup_lookup_failed: %w", err)
	}

	metadata := make(map[string]any, len(input.Data)+1)
	maps.Copy(metadata, input.Data)

	candidate := &User{UserMetadata: metadata}
	requested := query.FirstNonEmpty(candidate.Username(), localPart(email))
	username, ok := slug.Username(requested)
	if !ok {
		return nil, apperr.ValidationError("Username must be between 3 and 32 letters or digits",
			apperr.FieldError{Field: MetaUsername, Message: "Invalid username"})
	}
	metadata[MetaUsername] = username

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:               uuid.New(),
		Email:            email,
		PasswordHash:     hashedPassword,
		Role:             sec.RoleAuthenticated,
		UserMetadata:     metadata,
		EmailConfirmedAt: &now,
	}

	if err := service.userRepository.Create(context, user, username); err != nil {
		return nil, err
	}

	return service.issueSession(context, user, constants.AAL1, input.UserAgent, input.IPAddress)
}

// # Authentication Flow

// PasswordGrant defines credentials for a password sign-in attempt.
type PasswordGrant struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

/*
SignInWithPassword validates credentials and issues an aal1 session.

Returns:
  - *TokenResponse: Access and refresh tokens
  - error: Unauthorized with a generic message to prevent enumeration
*/
func (service *Service) SignInWithPassword(context context.Context, grant PasswordGrant) (*TokenResponse, error) {
	user, err := service.userRepository.FindByEmail(context, normalizeEmail(grant.Email))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, fmt.Errorf("auth_service_signin_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(grant.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	now := time.Now()
	if err := service.userRepository.TouchSignIn(context, user.ID, now); err != nil {
		return nil, fmt.Errorf("auth_service_touch_signin_failed: %w", err)
	}
	user.LastSignInAt = &now

	return service.issueSession(context, user, constants.AAL1, grant.UserAgent, grant.IPAddress)
}

/*
RefreshSession implements the Refresh Token Rotation mechanism.

Description: Verifies the refresh token, revokes it to prevent replay, and
issues a fresh pair at the same assurance level.
*/
func (service *Service) RefreshSession(context context.Context, refreshToken, userAgent, ipAddress string) (*TokenResponse, error) {
	session, err := service.sessionRepository.FindByTokenHash(context, sec.HashToken(refreshToken))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid Refresh Token")
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return nil, fmt.Errorf("auth_service_refresh_revoke_failed: %w", err)
	}

	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("User not found")
	}

	return service.issueSession(context, user, session.AAL, userAgent, ipAddress)
}

// LogoutScope selects which sessions a sign-out revokes.
type LogoutScope string

const (
	LogoutLocal  LogoutScope = "local"
	LogoutGlobal LogoutScope = "global"
)

/*
Logout revokes the caller's session, or every session with [LogoutGlobal].

It is idempotent: an already revoked session is not an error.
*/
func (service *Service) Logout(context context.Context, claims *sec.AuthClaims, scope LogoutScope) error {
	if scope == LogoutGlobal {
		if err := service.sessionRepository.RevokeAll(context, claims.UserID); err != nil {
			return fmt.Errorf("auth_service_logout_all_failed: %w", err)
		}
		return nil
	}

	if claims.SessionID == "" {
		return nil
	}

	if err := service.sessionRepository.Revoke(context, claims.SessionID); err != nil && !apperr.IsNotFound(err) {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Account

/*
GetUser returns the account with its factors loaded.
*/
func (service *Service) GetUser(context context.Context, userID string) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	factors, err := service.factorRepository.ListByUser(context, userID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_list_factors_failed: %w", err)
	}
	user.Factors = factors

	return user, nil
}

// UpdateUserInput holds the optional changes of PUT /user. Nil means unchanged.
type UpdateUserInput struct {
	Email    *string
	Password *string
	Data     map[string]any
}

/*
UpdateUser applies metadata and password changes immediately and starts an
email change.

Description: A new email is not applied here. A 6-digit code is stored for
[EmailChangeTTL] and sent to the new address; verify-email-change applies it.
*/
func (service *Service) UpdateUser(context context.Context, userID string, input UpdateUserInput) (*User, error) {
	user, err := service.GetUser(context, userID)
	if err != nil {
		return nil, err
	}

	if len(input.Data) > 0 {
		metadata := make(map[string]any, len(user.UserMetadata)+len(input.Data))
		maps.Copy(metadata, user.UserMetadata)
		maps.Copy(metadata, input.Data)

		// The username is owned by the profile row
		metadata[MetaUsername] = user.UserMetadata[MetaUsername]

		if err := service.userRepository.UpdateMetadata(context, userID, metadata); err != nil {
			return nil, fmt.Errorf("auth_service_update_metadata_failed: %w", err)
		}
		user.UserMetadata = metadata
	}

	if input.Password != nil {
		hashedPassword, err := sec.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
		}
		if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
			return nil, fmt.Errorf("auth_service_update_password_failed: %w", err)
		}
	}

	if input.Email != nil {
		if err := service.requestEmailChange(context, user, normalizeEmail(*input.Email)); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// requestEmailChange stores a hashed code for newEmail and sends the plain code.
func (service *Service) requestEmailChange(context context.Context, user *User, newEmail string) error {
	if newEmail == user.Email {
		return nil
	}

	if _, err := service.userRepository.FindByEmail(context, newEmail); err == nil {
		return apperr.Conflict("A user with this email address has already been registered")
	} else if !apperr.IsNotFound(err) {
		return fmt.Errorf("auth_service_email_lookup_failed: %w", err)
	}

	code, err := sec.GenerateNumericCode(EmailChangeCodeDigits)
	if err != nil {
		return fmt.Errorf("auth_service_email_code_failed: %w", err)
	}

	change := EmailChange{NewEmail: newEmail, CodeHash: sec.HashToken(code)}
	if err := service.emailChangeRepository.Set(context, user.ID, change, EmailChangeTTL); err != nil {
		return fmt.Errorf("auth_service_email_change_store_failed: %w", err)
	}

	if err := service.notifier.SendEmailChangeCode(context, newEmail, code); err != nil {
		return fmt.Errorf("auth_service_email_change_notify_failed: %w", err)
	}

	user.NewEmail = newEmail
	return nil
}

/*
ConfirmEmailChange applies a pending email change once the code matches.

Returns:
  - error: BadRequest for a missing change, a different address or a wrong code
*/
func (service *Service) ConfirmEmailChange(context context.Context, userID, code, newEmail string) error {
	change, err := service.emailChangeRepository.Get(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.BadRequest("No pending email change")
		}
		return fmt.Errorf("auth_service_email_change_lookup_failed: %w", err)
	}

	if normalizeEmail(newEmail) != change.NewEmail {
		return apperr.BadRequest("Email does not match the pending change")
	}

	if !sec.ConstantTimeEqual(sec.HashToken(code), change.CodeHash) {
		return apperr.BadRequest("Invalid verification code")
	}

	if err := service.userRepository.UpdateEmail(context, userID, change.NewEmail); err != nil {
		return err
	}

	// The change is applied; a leftover code expires with its TTL
	if err := service.emailChangeRepository.Delete(context, userID); err != nil {
		ctxutil.GetLogger(context).Warn("email_change_code_delete_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// # Multi-Factor Authentication

// Enrollment is the response of a TOTP enrollment.
type Enrollment struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	FriendlyName string         `json:"friendly_name"`
	TOTP         EnrollmentTOTP `json:"totp"`
}

// EnrollmentTOTP carries what an authenticator app needs.
type EnrollmentTOTP struct {
	QRCode string `json:"qr_code"`
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

/*
ListFactors returns the user's enrolled factors.
*/
func (service *Service) ListFactors(context context.Context, userID string) ([]Factor, error) {
	factors, err := service.factorRepository.ListByUser(context, userID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_list_factors_failed: %w", err)
	}
	return factors, nil
}

/*
EnrollFactor creates an unverified TOTP factor and returns its secret.
*/
func (service *Service) EnrollFactor(context context.Context, userID, friendlyName string) (*Enrollment, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: TOTPIssuer, AccountName: user.Email})
	if err != nil {
		return nil, fmt.Errorf("auth_service_totp_generate_failed: %w", err)
	}

	factor := &Factor{
		ID:           uuid.New(),
		UserID:       userID,
		FriendlyName: friendlyName,
		FactorType:   FactorTypeTOTP,
		Secret:       key.Secret(),
		Status:       FactorStatusUnverified,
	}

	if err := service.factorRepository.Create(context, factor); err != nil {
		return nil, err
	}

	qrCode, err := qrDataURI(key.Image)
	if err != nil {
		return nil, fmt.Errorf("auth_service_totp_qr_failed: %w", err)
	}

	return &Enrollment{
		ID:           factor.ID,
		Type:         FactorTypeTOTP,
		FriendlyName: friendlyName,
		TOTP:         EnrollmentTOTP{QRCode: qrCode, Secret: key.Secret(), URI: key.URL()},
	}, nil
}

/*
VerifyFactor checks a TOTP code and upgrades the caller to an aal2 session.

Description: The first successful verification marks the factor verified.
The current session is rotated into a new aal2 session.

Returns:
  - *TokenResponse: The aal2 session
  - error: Unprocessable for a wrong code, NotFound for a foreign factor
*/
func (service *Service) VerifyFactor(context context.Context, claims *sec.AuthClaims, factorID, code, userAgent, ipAddress string) (*TokenResponse, error) {
	factor, err := service.factorRepository.FindByID(context, claims.UserID, factorID)
	if err != nil {
		return nil, err
	}

	if !totp.Validate(code, factor.Secret) {
		return nil, apperr.Unprocessable("Invalid TOTP code entered")
	}

	if factor.Status != FactorStatusVerified {
		if err := service.factorRepository.MarkVerified(context, factor.ID); err != nil {
			return nil, fmt.Errorf("auth_service_factor_verify_failed: %w", err)
		}
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, err
	}

	if claims.SessionID != "" {
		if err := service.sessionRepository.Revoke(context, claims.SessionID); err != nil && !apperr.IsNotFound(err) {
			return nil, fmt.Errorf("auth_service_factor_revoke_failed: %w", err)
		}
	}

	return service.issueSession(context, user, constants.AAL2, userAgent, ipAddress)
}

/*
UnenrollFactor deletes one of the caller's factors.

Removing a verified factor requires an aal2 session.
*/
func (service *Service) UnenrollFactor(context context.Context, claims *sec.AuthClaims, factorID string) error {
	factor, err := service.factorRepository.FindByID(context, claims.UserID, factorID)
	if err != nil {
		return err
	}

	if factor.Status == FactorStatusVerified && claims.AAL != constants.AAL2 {
		return apperr.Forbidden("AAL2 required to unenroll verified factor")
	}

	return service.factorRepository.Delete(context, claims.UserID, factorID)
}

/*
RemoveAllFactors deletes every factor of a user. Administrative use only.

Returns:
  - int: Number of factors removed
  - error: NotFound when the user does not exist
*/
func (service *Service) RemoveAllFactors(context context.Context, userID string) (int, error) {
	if _, err := service.userRepository.FindByID(context, userID); err != nil {
		return 0, err
	}

	deleted, err := service.factorRepository.DeleteAllForUser(context, userID)
	if err != nil {
		return 0, fmt.Errorf("auth_service_remove_factors_failed: %w", err)
	}
	return deleted, nil
}

// # Session Issuance

// issueSession persists a new refresh session and signs its access token.
func (service *Service) issueSession(context context.Context, user *User, aal, userAgent, ipAddress string) (*TokenResponse, error) {
	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	if aal == "" {
		aal = constants.AAL1
	}

	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken),
		AAL:       aal,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(sec.TokenInput{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         string(user.Role),
		AAL:          aal,
		SessionID:    session.ID,
		UserMetadata: user.UserMetadata,
	}, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
		ExpiresAt:    time.Now().Add(AccessTokenTTL).Unix(),
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// # Helpers

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// qrDataURI renders the enrollment QR code as a PNG data URI.
func qrDataURI(render func(width, height int) (image.Image, error)) (string, error) {
	img, err := render(200, 200)
	if err != nil {
		return "", err
	}

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()), nil
}
