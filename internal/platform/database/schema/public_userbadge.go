// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserBadgeTable represents the 'public.user_badges' table
type UserBadgeTable struct {
	Table     string
	UserID    string
	BadgeID   string
	AwardedAt string
}

// UserBadge is the schema definition for public.user_badges
var UserBadge = UserBadgeTable{
	Table:     "public.user_badges",
	UserID:    "user_id",
	BadgeID:   "badge_id",
	AwardedAt: "awarded_at",
}

// Columns returns all standard column names
func (t UserBadgeTable) Columns() []string {
	return []string{
		t.UserID, t.BadgeID, t.AwardedAt,
	}
}
