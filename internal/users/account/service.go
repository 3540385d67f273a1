// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/uservault/internal/platform/ctxutil"
)

// # Contracts

// EmailChanger applies a pending email change once its code is confirmed.
type EmailChanger interface {
	ConfirmEmailChange(context context.Context, userID, code, newEmail string) error
}

// FactorRemover deletes every MFA factor of a user.
type FactorRemover interface {
	RemoveAllFactors(context context.Context, userID string) (int, error)
}

// # Service Layer

// Service orchestrates the account security operations exposed as edge
// functions: confirming an email change and the administrative MFA reset.
type Service struct {
	emailChanger  EmailChanger
	factorRemover FactorRemover
}

// NewService constructs a new [Service].
func NewService(emailChanger EmailChanger, factorRemover FactorRemover) *Service {
	return &Service{
		emailChanger:  emailChanger,
		factorRemover: factorRemover,
	}
}

/*
VerifyEmailChange confirms the caller's pending email change.

Parameters:
  - context: context.Context
  - userID: string (from the verified bearer)
  - code: string (6-digit code)
  - newEmail: string (must match the pending change)

Returns:
  - error: Any failure; the change is not applied
*/
func (service *Service) VerifyEmailChange(context context.Context, userID, code, newEmail string) error {
	if err := service.emailChanger.ConfirmEmailChange(context, userID, code, newEmail); err != nil {
		return err
	}

	ctxutil.GetLogger(context).Info("email_change_verified", slog.String("user_id", userID))
	return nil
}

/*
RemoveMFA deletes every factor of the target user on behalf of an administrator.

Returns:
  - int: Number of factors deleted
  - error: NotFound for an unknown user, or storage failures
*/
func (service *Service) RemoveMFA(context context.Context, actorID, targetUserID string) (int, error) {
	deleted, err := service.factorRemover.RemoveAllFactors(context, targetUserID)
	if err != nil {
		return 0, fmt.Errorf("account_service_remove_mfa_failed: %w", err)
	}

	ctxutil.GetLogger(context).Warn("admin_mfa_removed",
		slog.String("actor_id", actorID),
		slog.String("user_id", targetUserID),
		slog.Int("deleted_factors", deleted),
	)

	return deleted, nil
}
