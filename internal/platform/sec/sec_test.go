// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/sec"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

/*
TestTokenService_RoundTrip verifies that generated tokens verify and carry the identity claims.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "test-issuer")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken(sec.TokenInput{
		UserID:       "user-1",
		Email:        "ab@example.com",
		Role:         "authenticated",
		AAL:          "aal2",
		SessionID:    "session-1",
		UserMetadata: map[string]any{"display_name": "Ab"},
	}, time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ab@example.com", claims.Email)
	assert.Equal(t, "aal2", claims.AAL)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "Ab", claims.UserMetadata["display_name"])
}

/*
TestTokenService_Rejects covers expired, foreign, and malformed tokens.
*/
func TestTokenService_Rejects(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "test-issuer")
	require.NoError(t, err)

	other, err := sec.NewTokenService("another-secret-that-is-long-enough-0000", "test-issuer")
	require.NoError(t, err)

	expired, err := service.GenerateAccessToken(sec.TokenInput{UserID: "u"}, -time.Minute)
	require.NoError(t, err)

	foreign, err := other.GenerateAccessToken(sec.TokenInput{UserID: "u"}, time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"foreign":   foreign,
		"malformed": "not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := service.VerifyToken(token)
			assert.ErrorIs(t, err, sec.ErrInvalidToken)
		})
	}
}

/*
TestNewTokenService_ShortSecret rejects secrets that are too short for HS256.
*/
func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := sec.NewTokenService("short", "issuer")
	assert.Error(t, err)
}

/*
TestInspectToken reads claims without a secret.
*/
func TestInspectToken(t *testing.T) {
	service, err := sec.NewTokenService(testSecret, "test-issuer")
	require.NoError(t, err)

	token, err := service.GenerateAccessToken(sec.TokenInput{UserID: "user-9", AAL: "aal1"}, time.Minute)
	require.NoError(t, err)

	claims, err := sec.InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.UserID)
	assert.Equal(t, "aal1", claims.AAL)

	_, err = sec.InspectToken("garbage")
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestPasswordHash verifies bcrypt hashing and comparison.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))
}

/*
TestGenerateNumericCode verifies length and digit-only output.
*/
func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := sec.GenerateNumericCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}

/*
TestUserRole_AtLeast verifies the role hierarchy.
*/
func TestUserRole_AtLeast(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleAuthenticated))
	assert.True(t, sec.RoleAuthenticated.AtLeast(sec.RoleAuthenticated))
	assert.False(t, sec.RoleAuthenticated.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.RoleAnon.AtLeast(sec.RoleAuthenticated))
}
