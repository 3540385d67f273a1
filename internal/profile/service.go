// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/validate"
	"github.com/taibuivan/uservault/pkg/pointer"
	"github.com/taibuivan/uservault/pkg/slug"
)

// Service implements profile reads, edits and Open Graph rendering.
type Service struct {
	repository Repository
	siteURL    string
}

// NewService constructs a new [Service]. siteURL is the public profile origin.
func NewService(repository Repository, siteURL string) *Service {
	return &Service{repository: repository, siteURL: strings.TrimRight(siteURL, "/")}
}

// Get returns the caller's own profile.
func (service *Service) Get(context context.Context, userID string) (*Profile, error) {
	return service.repository.FindByUserID(context, userID)
}

/*
Update edits the caller's profile.

Returns:
  - *Profile: The stored result
  - error: Validation failures or NotFound
*/
func (service *Service) Update(context context.Context, userID string, input UpdateInput) (*Profile, error) {
	validator := &validate.Validator{}
	validator.
		MaxLen("display_name", pointer.Val(input.DisplayName), MaxDisplayNameLength).
		MaxLen("bio", pointer.Val(input.Bio), MaxBioLength).
		HTTPURL("avatar_url", pointer.Val(input.AvatarURL)).
		HTTPURL("background_video_url", pointer.Val(input.BackgroundVideoURL)).
		HTTPURL("music_url", pointer.Val(input.MusicURL))

	if err := validator.Err(); err != nil {
		return nil, err
	}

	if input.Empty() {
		return service.repository.FindByUserID(context, userID)
	}

	profile, err := service.repository.Update(context, userID, input)
	if err != nil {
		return nil, err
	}

	ctxutil.GetLogger(context).Info("profile_updated", slog.String("user_id", userID))
	return profile, nil
}

// SocialLinks returns the caller's links.
func (service *Service) SocialLinks(context context.Context, userID string) ([]SocialLink, error) {
	links, err := service.repository.ListSocialLinks(context, userID)
	if err != nil {
		return nil, fmt.Errorf("profile_service_links_failed: %w", err)
	}
	return links, nil
}

// Badges returns the caller's badges.
func (service *Service) Badges(context context.Context, userID string) ([]Badge, error) {
	badges, err := service.repository.ListBadges(context, userID)
	if err != nil {
		return nil, fmt.Errorf("profile_service_badges_failed: %w", err)
	}
	return badges, nil
}

/*
OpenGraph renders link-preview metadata for a public profile.

Returns:
  - *OpenGraph: Title, description, image and canonical URL
  - error: BadRequest for an invalid username, NotFound for an unknown one
*/
func (service *Service) OpenGraph(context context.Context, rawUsername string) (*OpenGraph, error) {
	if strings.TrimSpace(rawUsername) == "" {
		return nil, apperr.BadRequest("Missing username")
	}

	username, ok := slug.Username(rawUsername)
	if !ok {
		return nil, apperr.BadRequest("Invalid username")
	}

	profile, err := service.repository.FindByUsername(context, username)
	if err != nil {
		return nil, err
	}

	badges, err := service.repository.ListBadges(context, profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("profile_service_og_badges_failed: %w", err)
	}

	description := profile.Bio
	if description == "" {
		description = fmt.Sprintf("Check out %s's profile on %s", profile.Name(), SiteName)
	}

	image := profile.AvatarURL
	if image == "" {
		image = service.siteURL + DefaultOGImagePath
	}

	return &OpenGraph{
		Title:       fmt.Sprintf("%s (@%s) | %s", profile.Name(), profile.Username, SiteName),
		Description: description,
		Image:       image,
		URL:         service.siteURL + "/" + profile.Username,
		Type:        "profile",
		SiteName:    SiteName,
		Username:    profile.Username,
		Badges:      len(badges),
		Views:       profile.ViewCount,
	}, nil
}
