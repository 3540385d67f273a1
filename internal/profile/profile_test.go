// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/pkg/pointer"
)

type fakeRepository struct {
	profiles map[string]*Profile
	links    []SocialLink
	badges   []Badge
	err      error
	updates  int
}

func (fake *fakeRepository) FindByUsername(_ context.Context, username string) (*Profile, error) {
	if fake.err != nil {
		return nil, fake.err
	}
	for _, profile := range fake.profiles {
		if profile.Username == username {
			return profile, nil
		}
	}
	return nil, apperr.NotFound("Profile")
}

func (fake *fakeRepository) FindByUserID(_ context.Context, userID string) (*Profile, error) {
	if profile, ok := fake.profiles[userID]; ok {
		return profile, nil
	}
	return nil, apperr.NotFound("Profile")
}

func (fake *fakeRepository) Update(_ context.Context, userID string, input UpdateInput) (*Profile, error) {
	fake.updates++
	profile, ok := fake.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("Profile")
	}
	profile.DisplayName = pointer.Fallback(input.DisplayName, profile.DisplayName)
	profile.Bio = pointer.Fallback(input.Bio, profile.Bio)
	profile.AvatarURL = pointer.Fallback(input.AvatarURL, profile.AvatarURL)
	return profile, nil
}

func (fake *fakeRepository) ListSocialLinks(context.Context, string) ([]SocialLink, error) {
	return fake.links, nil
}

func (fake *fakeRepository) ListBadges(context.Context, string) ([]Badge, error) {
	return fake.badges, nil
}

func newRepository() *fakeRepository {
	return &fakeRepository{
		profiles: map[string]*Profile{
			"user-1": {UserID: "user-1", Username: "alice", ViewCount: 42, CreatedAt: time.Now()},
		},
		badges: []Badge{{Slug: "early-adopter"}, {Slug: "verified"}},
	}
}

func TestService_OpenGraph(t *testing.T) {
	service := NewService(newRepository(), "https://uservault.app/")

	og, err := service.OpenGraph(context.Background(), "Alice")
	require.NoError(t, err)

	assert.Equal(t, "alice (@alice) | UserVault", og.Title)
	assert.Equal(t, "Check out alice's profile on UserVault", og.Description)
	assert.Equal(t, "https://uservault.app/og-default.png", og.Image)
	assert.Equal(t, "https://uservault.app/alice", og.URL)
	assert.Equal(t, 2, og.Badges)
	assert.Equal(t, int64(42), og.Views)
}

func TestService_OpenGraph_UsesProfileFields(t *testing.T) {
	repository := newRepository()
	repository.profiles["user-1"].DisplayName = "Alice A."
	repository.profiles["user-1"].Bio = "hello"
	repository.profiles["user-1"].AvatarURL = "https://cdn.example.com/a.png"

	og, err := NewService(repository, "https://uservault.app").OpenGraph(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "Alice A. (@alice) | UserVault", og.Title)
	assert.Equal(t, "hello", og.Description)
	assert.Equal(t, "https://cdn.example.com/a.png", og.Image)
}

func TestService_Update(t *testing.T) {
	repository := newRepository()
	service := NewService(repository, "https://uservault.app")

	profile, err := service.Update(context.Background(), "user-1", UpdateInput{DisplayName: pointer.To("Alice")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.DisplayName)

	_, err = service.Update(context.Background(), "user-1", UpdateInput{AvatarURL: pointer.To("javascript:alert(1)")})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	// An empty update reads instead of writing
	_, err = service.Update(context.Background(), "user-1", UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, repository.updates)
}

func TestHandler_OpenGraph(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		repo   *fakeRepository
		status int
	}{
		{"found", "?username=alice", newRepository(), http.StatusOK},
		{"missing", "", newRepository(), http.StatusBadRequest},
		{"invalid", "?username=!!", newRepository(), http.StatusBadRequest},
		{"unknown", "?username=nobody", newRepository(), http.StatusNotFound},
		{"storage failure", "?username=alice", &fakeRepository{err: errors.New("down")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			NewHandler(NewService(tt.repo, "https://uservault.app")).Register(router)

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/"+constants.FnOGProfile+tt.query, nil))

			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, recorder.Body.String(), `"error"`)
			}
		})
	}
}
