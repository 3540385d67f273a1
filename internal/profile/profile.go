// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile owns the public profile page data: the profile row, its
social links and awarded badges.

It serves og-profile directly and backs the profile actions of the
encrypted API channel.
*/
package profile

import "time"

// # Domain Entities

// Profile is a user's public page.
type Profile struct {
	UserID             string    `json:"user_id"`
	Username           string    `json:"username"`
	DisplayName        string    `json:"display_name"`
	Bio                string    `json:"bio"`
	AvatarURL          string    `json:"avatar_url"`
	BackgroundVideoURL string    `json:"background_video_url"`
	MusicURL           string    `json:"music_url"`
	DiscordID          *string   `json:"discord_id,omitempty"`
	ViewCount          int64     `json:"view_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Name is the display name, or the username when none is set.
func (profile *Profile) Name() string {
	if profile.DisplayName != "" {
		return profile.DisplayName
	}
	return profile.Username
}

// SocialLink is one link on the profile page, ordered by Position.
type SocialLink struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Badge is an awarded badge.
type Badge struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// UpdateInput holds the editable profile fields. Nil means unchanged.
type UpdateInput struct {
	DisplayName        *string `json:"display_name"`
	Bio                *string `json:"bio"`
	AvatarURL          *string `json:"avatar_url"`
	BackgroundVideoURL *string `json:"background_video_url"`
	MusicURL           *string `json:"music_url"`
}

// Empty reports whether no field is set.
func (input UpdateInput) Empty() bool {
	return input.DisplayName == nil && input.Bio == nil && input.AvatarURL == nil &&
		input.BackgroundVideoURL == nil && input.MusicURL == nil
}

// OpenGraph is the og-profile response document.
type OpenGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	Type        string `json:"type"`
	SiteName    string `json:"siteName"`
	Username    string `json:"username"`
	Badges      int    `json:"badges"`
	Views       int64  `json:"views"`
}

// # Limits

const (
	MaxDisplayNameLength = 64
	MaxBioLength         = 500
	SiteName             = "UserVault"
	DefaultOGImagePath   = "/og-default.png"
)
