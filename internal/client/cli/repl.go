// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"bufio"
	"context"
	"strconv"
	"strings"
)

const (
	signedOutHelp = "Commands: signin, signin-xhr, signup, feed [limit], invoke <fn> [json], exit"
	signedInHelp  = "Commands: whoami, profile, badges, links, rename <name>, feed [limit], invoke <fn> [json], mfa-enroll, mfa-verify <factor>, signout, exit"
)

// commands is the surface the REPL drives. [App] implements it.
type commands interface {
	isSignedIn() bool
	status() string
	printf(format string, args ...any)

	SignIn(ctx context.Context) error
	SignInXHR(ctx context.Context) error
	SignUp(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	SignOut(ctx context.Context) error
	EnrollTOTP(ctx context.Context) error
	VerifyTOTP(ctx context.Context, factorID string) error
	Invoke(ctx context.Context, name, body string) error
	Feed(ctx context.Context, limit int) error
	Profile(ctx context.Context) error
	Badges(ctx context.Context) error
	Links(ctx context.Context) error
	SetDisplayName(ctx context.Context, name string) error
}

// Run reads commands from the app's input until EOF or exit.
func (app *App) Run(ctx context.Context) {
	runREPL(ctx, app, app.reader)
}

// Execute runs a single command line. It reports false when the caller should stop.
func (app *App) Execute(ctx context.Context, args []string) bool {
	return execute(ctx, app, args)
}

// runREPL prompts with the current status and dispatches each line.
// Command errors are already reported to the user and do not stop the loop.
func runREPL(ctx context.Context, app commands, reader *bufio.Reader) {
	for {
		app.printf("vault [%s]> ", app.status())

		line, err := reader.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) > 0 && !execute(ctx, app, fields) {
			return
		}
		if err != nil {
			return
		}
	}
}

func execute(ctx context.Context, app commands, fields []string) bool {
	if len(fields) == 0 {
		return true
	}

	command, args := fields[0], fields[1:]
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch command {
	case "help":
		if app.isSignedIn() {
			app.printf("%s\n", signedInHelp)
		} else {
			app.printf("%s\n", signedOutHelp)
		}

	case "signin":
		_ = app.SignIn(ctx)
	case "signin-xhr":
		_ = app.SignInXHR(ctx)
	case "signup":
		_ = app.SignUp(ctx)
	case "whoami":
		_ = app.WhoAmI(ctx)
	case "signout":
		_ = app.SignOut(ctx)

	case "mfa-enroll":
		_ = app.EnrollTOTP(ctx)
	case "mfa-verify":
		if arg(0) == "" {
			app.printf("usage: mfa-verify <factor>\n")
			return true
		}
		_ = app.VerifyTOTP(ctx, arg(0))

	case "invoke":
		if arg(0) == "" {
			app.printf("usage: invoke <function> [json]\n")
			return true
		}
		_ = app.Invoke(ctx, arg(0), strings.Join(args[1:], " "))

	case "feed":
		limit, err := strconv.Atoi(arg(0))
		if arg(0) != "" && err != nil {
			app.printf("usage: feed [limit]\n")
			return true
		}
		_ = app.Feed(ctx, limit)

	case "profile":
		_ = app.Profile(ctx)
	case "badges":
		_ = app.Badges(ctx)
	case "links":
		_ = app.Links(ctx)
	case "rename":
		if len(args) == 0 {
			app.printf("usage: rename <display name>\n")
			return true
		}
		_ = app.SetDisplayName(ctx, strings.Join(args, " "))

	case "exit", "quit":
		app.printf("Bye!\n")
		return false

	default:
		app.printf("Unknown command: %s\n", command)
	}
	return true
}
