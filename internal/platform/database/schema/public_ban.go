// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// BanTable represents the 'public.bans' table
type BanTable struct {
	Table             string
	UserID            string
	Reason            string
	BannedAt          string
	AppealDeadline    string
	AppealSubmittedAt string
	AppealText        string
}

// Ban is the schema definition for public.bans
var Ban = BanTable{
	Table:             "public.bans",
	UserID:            "user_id",
	Reason:            "reason",
	BannedAt:          "banned_at",
	AppealDeadline:    "appeal_deadline",
	AppealSubmittedAt: "appeal_submitted_at",
	AppealText:        "appeal_text",
}

// Columns returns all standard column names
func (t BanTable) Columns() []string {
	return []string{
		t.UserID, t.Reason, t.BannedAt, t.AppealDeadline, t.AppealSubmittedAt, t.AppealText,
	}
}
