// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import "context"

// Repository defines the data access contract for profile pages.
type Repository interface {

	/*
		FindByUsername returns the profile owning the normalized username.

		Returns:
		  - error: apperr.NotFound when absent
	*/
	FindByUsername(context context.Context, username string) (*Profile, error)

	/*
		FindByUserID returns the profile of the user.

		Returns:
		  - error: apperr.NotFound when absent
	*/
	FindByUserID(context context.Context, userID string) (*Profile, error)

	/*
		Update applies the non-nil fields and returns the updated profile.
	*/
	Update(context context.Context, userID string, input UpdateInput) (*Profile, error)

	/*
		ListSocialLinks returns the user's links ordered by position.
	*/
	ListSocialLinks(context context.Context, userID string) ([]SocialLink, error)

	/*
		ListBadges returns the user's badges, oldest award first.
	*/
	ListBadges(context context.Context, userID string) ([]Badge, error)
}
