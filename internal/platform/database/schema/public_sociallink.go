// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SocialLinkTable represents the 'public.social_links' table
type SocialLinkTable struct {
	Table     string
	ID        string
	UserID    string
	Platform  string
	URL       string
	Position  string
	CreatedAt string
}

// SocialLink is the schema definition for public.social_links
var SocialLink = SocialLinkTable{
	Table:     "public.social_links",
	ID:        "id",
	UserID:    "user_id",
	Platform:  "platform",
	URL:       "url",
	Position:  "position",
	CreatedAt: "created_at",
}

// Columns returns all standard column names
func (t SocialLinkTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Platform, t.URL, t.Position, t.CreatedAt,
	}
}
