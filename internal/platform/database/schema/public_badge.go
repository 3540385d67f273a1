// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// BadgeTable represents the 'public.badges' table
type BadgeTable struct {
	Table       string
	ID          string
	Slug        string
	Name        string
	Description string
	IconURL     string
	CreatedAt   string
}

// Badge is the schema definition for public.badges
var Badge = BadgeTable{
	Table:       "public.badges",
	ID:          "id",
	Slug:        "slug",
	Name:        "name",
	Description: "description",
	IconURL:     "icon_url",
	CreatedAt:   "created_at",
}

// Columns returns all standard column names
func (t BadgeTable) Columns() []string {
	return []string{
		t.ID, t.Slug, t.Name, t.Description, t.IconURL, t.CreatedAt,
	}
}
