// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"time"
)

// BanRepository defines the data access contract for bans.
type BanRepository interface {

	/*
		FindByUserID returns the user's ban.

		Returns:
		  - error: apperr.NotFound when the user is not banned
	*/
	FindByUserID(context context.Context, userID string) (*Ban, error)

	/*
		FindByUsername returns the ban of the profile owning username.

		Returns:
		  - error: apperr.NotFound when the username is unknown or not banned
	*/
	FindByUsername(context context.Context, username string) (*Ban, error)

	/*
		SubmitAppeal records the appeal text if the ban is still appealable at.

		Returns:
		  - bool: false when no appealable ban matched (already appealed or past the deadline)
	*/
	SubmitAppeal(context context.Context, userID, text string, at time.Time) (bool, error)
}
