// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ProfileTable represents the 'public.profiles' table
type ProfileTable struct {
	Table              string
	UserID             string
	Username           string
	DisplayName        string
	Bio                string
	AvatarURL          string
	BackgroundVideoURL string
	MusicURL           string
	DiscordID          string
	ViewCount          string
	CreatedAt          string
	UpdatedAt          string
}

// Profile is the schema definition for public.profiles
var Profile = ProfileTable{
	Table:              "public.profiles",
	UserID:             "user_id",
	Username:           "username",
	DisplayName:        "display_name",
	Bio:                "bio",
	AvatarURL:          "avatar_url",
	BackgroundVideoURL: "background_video_url",
	MusicURL:           "music_url",
	DiscordID:          "discord_id",
	ViewCount:          "view_count",
	CreatedAt:          "created_at",
	UpdatedAt:          "updated_at",
}

// Columns returns all standard column names
func (t ProfileTable) Columns() []string {
	return []string{
		t.UserID, t.Username, t.DisplayName, t.Bio, t.AvatarURL, t.BackgroundVideoURL,
		t.MusicURL, t.DiscordID, t.ViewCount, t.CreatedAt, t.UpdatedAt,
	}
}
