// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package moderation serves ban status and ban appeals.

A row in public.bans means the user is banned. Status checks fail open: any
infrastructure failure reports the user as not banned.
*/
package moderation

import "time"

// Ban is a user's active ban.
type Ban struct {
	UserID            string
	Reason            string
	BannedAt          time.Time
	AppealDeadline    *time.Time
	AppealSubmittedAt *time.Time
	AppealText        *string
}

// CanAppeal reports whether an appeal may still be submitted at now.
//
// One appeal per ban, and only before the deadline. A ban without a deadline
// accepts an appeal at any time.
func (ban *Ban) CanAppeal(now time.Time) bool {
	if ban.AppealSubmittedAt != nil {
		return false
	}
	return ban.AppealDeadline == nil || now.Before(*ban.AppealDeadline)
}

// Status is the check-ban-status response document.
type Status struct {
	IsBanned       bool       `json:"isBanned"`
	CanAppeal      *bool      `json:"canAppeal,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	BannedAt       *time.Time `json:"bannedAt,omitempty"`
	AppealDeadline *time.Time `json:"appealDeadline,omitempty"`
}

// NotBanned is the benign status returned when nothing is found or lookups fail.
var NotBanned = Status{IsBanned: false}

// StatusOf renders the ban as seen at now.
func StatusOf(ban *Ban, now time.Time) Status {
	canAppeal := ban.CanAppeal(now)
	bannedAt := ban.BannedAt

	return Status{
		IsBanned:       true,
		CanAppeal:      &canAppeal,
		Reason:         ban.Reason,
		BannedAt:       &bannedAt,
		AppealDeadline: ban.AppealDeadline,
	}
}

// Lookup identifies whose status is requested.
type Lookup struct {
	UserID   string
	Username string
}

const (
	// MaxAppealLength bounds the appeal text.
	MaxAppealLength = 2000
)
