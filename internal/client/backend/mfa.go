// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/sec"
)

// FactorTypeTOTP is the only factor type the server enrolls.
const FactorTypeTOTP = "totp"

// MFA groups the /auth/v1/factors operations of a [Client].
type MFA struct {
	client *Client
}

// GetAuthenticatorAssuranceLevel reports the level the current token carries
// and the level the account can reach.
//
// The current level is read from the token without verifying it; the server
// remains the authority. The next level is aal2 once any factor is verified.
func (mfa *MFA) GetAuthenticatorAssuranceLevel(ctx context.Context) (AssuranceLevel, error) {
	token := mfa.client.AccessToken()
	if token == "" {
		return AssuranceLevel{}, ErrNoSession
	}

	claims, err := sec.InspectToken(token)
	if err != nil {
		return AssuranceLevel{}, apperr.Unauthorized("Malformed access token")
	}

	current := claims.AAL
	if current == "" {
		current = AAL1
	}

	user, err := mfa.client.Auth().GetUser(ctx)
	if err != nil {
		return AssuranceLevel{}, err
	}

	next := AAL1
	if user.HasVerifiedFactor() {
		next = AAL2
	}

	return AssuranceLevel{CurrentLevel: current, NextLevel: next}, nil
}

// ListFactors returns the caller's enrolled factors.
func (mfa *MFA) ListFactors(ctx context.Context) ([]Factor, error) {
	token := mfa.client.AccessToken()
	if token == "" {
		return nil, ErrNoSession
	}

	var factors []Factor
	if err := mfa.client.call(ctx, http.MethodGet, "/factors", nil, nil, token, &factors); err != nil {
		return nil, err
	}
	return factors, nil
}

// Enroll starts a TOTP enrollment. The factor stays unverified until [MFA.Verify].
func (mfa *MFA) Enroll(ctx context.Context, friendlyName string) (*Enrollment, error) {
	token := mfa.client.AccessToken()
	if token == "" {
		return nil, ErrNoSession
	}

	body := map[string]string{"factor_type": FactorTypeTOTP, "friendly_name": friendlyName}

	var enrollment Enrollment
	if err := mfa.client.call(ctx, http.MethodPost, "/factors", nil, body, token, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Verify checks a TOTP code. On success the session is upgraded to aal2 and
// listeners see MFA_CHALLENGE_VERIFIED.
func (mfa *MFA) Verify(ctx context.Context, factorID, code string) (*Session, error) {
	token := mfa.client.AccessToken()
	if token == "" {
		return nil, ErrNoSession
	}

	var session Session
	path := "/factors/" + url.PathEscape(factorID) + "/verify"
	if err := mfa.client.call(ctx, http.MethodPost, path, nil, map[string]string{"code": code}, token, &session); err != nil {
		return nil, err
	}

	mfa.client.setSession(&session, EventMFAVerified)
	return session.clone(), nil
}

// Unenroll removes a factor.
func (mfa *MFA) Unenroll(ctx context.Context, factorID string) error {
	token := mfa.client.AccessToken()
	if token == "" {
		return ErrNoSession
	}
	return mfa.client.call(ctx, http.MethodDelete, "/factors/"+url.PathEscape(factorID), nil, nil, token, nil)
}
