// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/internal/platform/result"
	"github.com/taibuivan/uservault/pkg/slug"
	"github.com/taibuivan/uservault/pkg/uuid"
)

// Service implements ban status checks and appeals.
type Service struct {
	banRepository BanRepository
	now           func() time.Time
}

// NewService constructs a new [Service].
func NewService(banRepo BanRepository) *Service {
	return &Service{banRepository: banRepo, now: time.Now}
}

/*
CheckStatus resolves the ban status of the identity described by lookup.

Description: The user ID wins over the username. Neither given, an unknown
identity, or any lookup failure yields [NotBanned]; failures are returned as
recoverable errors for logging only.

Returns:
  - result.Result[Status]: Data is always a valid status
*/
func (service *Service) CheckStatus(context context.Context, lookup Lookup) result.Result[Status] {
	var (
		ban *Ban
		err error
	)

	switch {
	case uuid.Valid(lookup.UserID):
		ban, err = service.banRepository.FindByUserID(context, lookup.UserID)
	case strings.TrimSpace(lookup.Username) != "":
		username, ok := slug.Username(lookup.Username)
		if !ok {
			return result.OK(NotBanned)
		}
		ban, err = service.banRepository.FindByUsername(context, username)
	default:
		return result.OK(NotBanned)
	}

	if err != nil {
		if apperr.IsNotFound(err) {
			return result.OK(NotBanned)
		}
		return result.FailOpen(NotBanned, apperr.Upstream("Ban lookup failed", err))
	}

	return result.OK(StatusOf(ban, service.now()))
}

/*
SubmitAppeal records the caller's single appeal against their ban.

Returns:
  - error: NotFound when not banned, Conflict when already appealed or past the deadline
*/
func (service *Service) SubmitAppeal(context context.Context, userID, text string) error {
	ban, err := service.banRepository.FindByUserID(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound("Ban")
		}
		return err
	}

	now := service.now()
	if !ban.CanAppeal(now) {
		return apperr.Conflict("This ban can no longer be appealed")
	}

	accepted, err := service.banRepository.SubmitAppeal(context, userID, text, now)
	if err != nil {
		return err
	}
	if !accepted {
		return apperr.Conflict("This ban can no longer be appealed")
	}

	ctxutil.GetLogger(context).Info("ban_appeal_submitted", slog.String("user_id", userID))
	return nil
}
