// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"

	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	"github.com/taibuivan/uservault/pkg/mask"
)

// Notifier delivers verification codes to users.
type Notifier interface {
	SendEmailChangeCode(context context.Context, email, code string) error
}

// LogNotifier writes codes to the structured log instead of sending mail.
// The code itself is only emitted at debug level.
type LogNotifier struct{}

// NewLogNotifier returns a [LogNotifier].
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// SendEmailChangeCode logs the issued code against the masked address.
func (notifier *LogNotifier) SendEmailChangeCode(context context.Context, email, code string) error {
	logger := ctxutil.GetLogger(context)

	logger.Info("email_change_code_issued", slog.String("email", mask.EmailString(email)))
	logger.Debug("email_change_code_value", slog.String("email", mask.EmailString(email)), slog.String("code", code))

	return nil
}
