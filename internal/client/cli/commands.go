// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/taibuivan/uservault/internal/platform/apperr"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/result"
)

// # Session Commands

// SignIn prompts for credentials and signs in.
func (app *App) SignIn(ctx context.Context) error {
	email, err := promptText(app.reader, app.writer, "Email")
	if err != nil {
		return app.fail(err)
	}
	password, err := promptPassword(app.writer)
	if err != nil {
		return app.fail(err)
	}

	if _, err := app.client.Auth().SignInWithPassword(ctx, email, password); err != nil {
		return app.fail(err)
	}
	app.printf("Signed in as %s\n", email)
	return nil
}

// SignInXHR signs in through the raw token request and installs the session.
func (app *App) SignInXHR(ctx context.Context) error {
	email, err := promptText(app.reader, app.writer, "Email")
	if err != nil {
		return app.fail(err)
	}
	password, err := promptPassword(app.writer)
	if err != nil {
		return app.fail(err)
	}

	outcome := app.client.XHRSignIn(ctx, email, password)
	if outcome.Err != nil {
		return app.fail(outcome.Err)
	}
	app.client.Auth().SetSession(outcome.Data)
	app.printf("Signed in as %s\n", email)
	return nil
}

// SignUp prompts for an account and registers it.
func (app *App) SignUp(ctx context.Context) error {
	email, err := promptText(app.reader, app.writer, "Email")
	if err != nil {
		return app.fail(err)
	}
	username, err := promptText(app.reader, app.writer, "Username")
	if err != nil {
		return app.fail(err)
	}
	password, err := promptPassword(app.writer)
	if err != nil {
		return app.fail(err)
	}

	if _, err := app.client.Auth().SignUp(ctx, email, password, map[string]any{"username": username}); err != nil {
		return app.fail(err)
	}
	app.printf("Account created for %s\n", email)
	return nil
}

// WhoAmI prints the current account.
func (app *App) WhoAmI(ctx context.Context) error {
	user, err := app.client.Auth().GetUser(ctx)
	if err != nil {
		return app.fail(err)
	}
	return app.printValue(user)
}

// SignOut ends the session.
func (app *App) SignOut(ctx context.Context) error {
	if err := app.state.SignOut(ctx); err != nil {
		return app.fail(err)
	}
	app.printf("Signed out\n")
	return nil
}

// # MFA Commands

// EnrollTOTP starts a TOTP enrollment and prints the secret.
func (app *App) EnrollTOTP(ctx context.Context) error {
	enrollment, err := app.client.MFA().Enroll(ctx, "cli")
	if err != nil {
		return app.fail(err)
	}
	app.printf("Factor %s\nSecret: %s\nURI: %s\n", enrollment.ID, enrollment.TOTP.Secret, enrollment.TOTP.URI)
	return nil
}

// VerifyTOTP checks a code for factorID.
func (app *App) VerifyTOTP(ctx context.Context, factorID string) error {
	code, err := promptText(app.reader, app.writer, "Code")
	if err != nil {
		return app.fail(err)
	}
	if _, err := app.client.MFA().Verify(ctx, factorID, code); err != nil {
		return app.fail(err)
	}
	app.printf("Factor verified\n")
	return nil
}

// # Function Commands

// Invoke calls any edge function with an optional JSON body.
func (app *App) Invoke(ctx context.Context, name, body string) error {
	var payload any
	if body != "" {
		if !json.Valid([]byte(body)) {
			return app.fail(apperr.BadRequest("Body must be valid JSON"))
		}
		payload = json.RawMessage(body)
	}
	return app.printResult(app.invoker.InvokeSecure(ctx, name, payload, nil))
}

// Feed prints the live feed.
func (app *App) Feed(ctx context.Context, limit int) error {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return app.printResult(app.invoker.Invoke(ctx, http.MethodGet, constants.FnGetLiveFeed, query, nil, nil))
}

// Profile prints the caller's profile through the encrypted channel.
func (app *App) Profile(ctx context.Context) error {
	return app.printResult(app.channel.GetProfile(ctx))
}

// Badges prints the caller's badges through the encrypted channel.
func (app *App) Badges(ctx context.Context) error {
	return app.printResult(app.channel.GetBadges(ctx))
}

// Links prints the caller's social links through the encrypted channel.
func (app *App) Links(ctx context.Context) error {
	return app.printResult(app.channel.GetSocialLinks(ctx))
}

// SetDisplayName updates the profile display name through the encrypted channel.
func (app *App) SetDisplayName(ctx context.Context, name string) error {
	return app.printResult(app.channel.UpdateProfile(ctx, map[string]string{"display_name": name}))
}

// # Output

func (app *App) printResult(outcome result.Result[json.RawMessage]) error {
	if outcome.Err != nil {
		return app.fail(outcome.Err)
	}

	var pretty bytes.Buffer
	if len(outcome.Data) == 0 || json.Indent(&pretty, outcome.Data, "", "  ") != nil {
		app.printf("%s\n", outcome.Data)
		return nil
	}
	app.printf("%s\n", pretty.String())
	return nil
}

func (app *App) printValue(value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return app.fail(err)
	}
	app.printf("%s\n", raw)
	return nil
}

// fail reports err to the user and returns it.
func (app *App) fail(err error) error {
	if appErr := apperr.As(err); appErr != nil {
		app.printf("error: %s\n", appErr.Message)
		return err
	}
	app.printf("error: %v\n", err)
	return err
}
