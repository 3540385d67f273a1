// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/middleware"
	"github.com/taibuivan/uservault/internal/platform/sec"
)

const bannedUserID = "0190b6c4-8f3a-7d2e-9a41-5c3e2b1d0f88"

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeBans struct {
	bans       map[string]*Ban
	byUsername map[string]string
	err        error
}

func (fake *fakeBans) FindByUserID(_ context.Context, userID string) (*Ban, error) {
	if fake.err != nil {
		return nil, fake.err
	}
	ban, ok := fake.bans[userID]
	if !ok {
		return nil, apperr.NotFound("Ban")
	}
	return ban, nil
}

func (fake *fakeBans) FindByUsername(ctx context.Context, username string) (*Ban, error) {
	if fake.err != nil {
		return nil, fake.err
	}
	return fake.FindByUserID(ctx, fake.byUsername[username])
}

func (fake *fakeBans) SubmitAppeal(_ context.Context, userID, text string, at time.Time) (bool, error) {
	ban, ok := fake.bans[userID]
	if !ok || !ban.CanAppeal(at) {
		return false, nil
	}
	ban.AppealSubmittedAt = &at
	ban.AppealText = &text
	return true, nil
}

func newBans() *fakeBans {
	deadline := fixedNow.Add(72 * time.Hour)
	return &fakeBans{
		bans: map[string]*Ban{
			bannedUserID: {UserID: bannedUserID, Reason: "spam", BannedAt: fixedNow.Add(-time.Hour), AppealDeadline: &deadline},
		},
		byUsername: map[string]string{"spammer": bannedUserID},
	}
}

func newTestService(repo BanRepository) *Service {
	service := NewService(repo)
	service.now = func() time.Time { return fixedNow }
	return service
}

func TestBan_CanAppeal(t *testing.T) {
	past := fixedNow.Add(-time.Minute)
	future := fixedNow.Add(time.Minute)

	assert.True(t, (&Ban{}).CanAppeal(fixedNow))
	assert.True(t, (&Ban{AppealDeadline: &future}).CanAppeal(fixedNow))
	assert.False(t, (&Ban{AppealDeadline: &past}).CanAppeal(fixedNow))
	assert.False(t, (&Ban{AppealSubmittedAt: &past}).CanAppeal(fixedNow))
}

func TestService_CheckStatus(t *testing.T) {
	service := newTestService(newBans())
	ctx := context.Background()

	t.Run("banned by id", func(t *testing.T) {
		status := service.CheckStatus(ctx, Lookup{UserID: bannedUserID})
		require.True(t, status.IsOK())
		assert.True(t, status.Data.IsBanned)
		require.NotNil(t, status.Data.CanAppeal)
		assert.True(t, *status.Data.CanAppeal)
		assert.Equal(t, "spam", status.Data.Reason)
	})

	t.Run("banned by username", func(t *testing.T) {
		status := service.CheckStatus(ctx, Lookup{Username: "  Spammer "})
		assert.True(t, status.Data.IsBanned)
	})

	t.Run("nothing to look up", func(t *testing.T) {
		status := service.CheckStatus(ctx, Lookup{})
		assert.True(t, status.IsOK())
		assert.Equal(t, NotBanned, status.Data)
	})

	t.Run("unknown username", func(t *testing.T) {
		status := service.CheckStatus(ctx, Lookup{Username: "nobody"})
		assert.True(t, status.IsOK())
		assert.False(t, status.Data.IsBanned)
	})

	t.Run("invalid username", func(t *testing.T) {
		assert.False(t, service.CheckStatus(ctx, Lookup{Username: "!"}).Data.IsBanned)
	})
}

func TestService_CheckStatus_FailsOpen(t *testing.T) {
	service := newTestService(&fakeBans{err: errors.New("connection refused")})

	status := service.CheckStatus(context.Background(), Lookup{UserID: bannedUserID})

	require.False(t, status.IsOK())
	assert.True(t, apperr.IsRecoverable(status.Err))
	assert.Equal(t, NotBanned, status.Data)
}

func TestService_SubmitAppeal(t *testing.T) {
	bans := newBans()
	service := newTestService(bans)
	ctx := context.Background()

	require.NoError(t, service.SubmitAppeal(ctx, bannedUserID, "I was hacked"))
	assert.Equal(t, "I was hacked", *bans.bans[bannedUserID].AppealText)

	err := service.SubmitAppeal(ctx, bannedUserID, "again")
	assert.Equal(t, http.StatusConflict, apperr.As(err).HTTPStatus)

	err = service.SubmitAppeal(ctx, "0190b6c4-0000-7000-8000-000000000000", "not banned")
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_SubmitAppeal_PastDeadline(t *testing.T) {
	bans := newBans()
	expired := fixedNow.Add(-time.Hour)
	bans.bans[bannedUserID].AppealDeadline = &expired

	err := newTestService(bans).SubmitAppeal(context.Background(), bannedUserID, "late")
	assert.Equal(t, http.StatusConflict, apperr.As(err).HTTPStatus)
}

func post(router http.Handler, path, body string, claims *sec.AuthClaims) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if claims != nil {
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestHandler_CheckBanStatus(t *testing.T) {
	path := "/" + constants.FnCheckBanStatus

	newRouter := func(repo BanRepository) chi.Router {
		router := chi.NewRouter()
		NewHandler(newTestService(repo)).Register(router)
		return router
	}

	tests := []struct {
		name   string
		repo   BanRepository
		body   string
		claims *sec.AuthClaims
		banned bool
	}{
		{name: "empty body", repo: newBans(), body: ``},
		{name: "empty object", repo: newBans(), body: `{}`},
		{name: "malformed body", repo: newBans(), body: `{"userId":`},
		{name: "banned user id", repo: newBans(), body: `{"userId":"` + bannedUserID + `"}`, banned: true},
		{name: "bearer overrides body", repo: newBans(), body: `{"userId":"` + bannedUserID + `"}`, claims: &sec.AuthClaims{UserID: "0190b6c4-0000-7000-8000-000000000000"}},
		{name: "database down", repo: &fakeBans{err: errors.New("down")}, body: `{"userId":"` + bannedUserID + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := post(newRouter(tt.repo), path, tt.body, tt.claims)

			require.Equal(t, http.StatusOK, recorder.Code)
			if tt.banned {
				assert.Contains(t, recorder.Body.String(), `"isBanned":true`)
			} else {
				assert.JSONEq(t, `{"isBanned":false}`, recorder.Body.String())
			}
		})
	}
}

type expiredTokens struct{}

func (expiredTokens) VerifyToken(string) (*sec.AuthClaims, error) {
	return nil, sec.ErrInvalidToken
}

func TestHandler_CheckBanStatus_ExpiredBearer(t *testing.T) {
	router := chi.NewRouter()
	router.Use(middleware.OptionalAuthenticate(expiredTokens{}, middleware.APIKeys{Anon: "anon-key"}))
	NewHandler(newTestService(newBans())).Register(router)

	request := httptest.NewRequest(http.MethodPost, "/"+constants.FnCheckBanStatus, strings.NewReader(`{"userId":"`+bannedUserID+`"}`))
	request.Header.Set("Authorization", "Bearer expired.jwt.token")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"isBanned":true`, "falls back to the body user id")
}

func TestHandler_SubmitBanAppeal(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(newTestService(newBans())).Register(router)
	path := "/" + constants.FnSubmitBanAppeal
	user := &sec.AuthClaims{UserID: bannedUserID}

	assert.Equal(t, http.StatusUnauthorized, post(router, path, `{"appeal":"x"}`, nil).Code)
	assert.Equal(t, http.StatusBadRequest, post(router, path, `{"appeal":""}`, user).Code)
	assert.Equal(t, http.StatusOK, post(router, path, `{"appeal":"please"}`, user).Code)
	assert.Equal(t, http.StatusConflict, post(router, path, `{"appeal":"please"}`, user).Code)
}
