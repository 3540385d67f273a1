// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cli is the interactive UserVault client.

It wires the client SDK together: the backend session, the edge-function
invoker, the encrypted channel, the auth state and the welcome-back gate. One
process is one client session, so the greeting appears at most once per login
per run.
*/
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/taibuivan/uservault/internal/client/authstate"
	"github.com/taibuivan/uservault/internal/client/backend"
	"github.com/taibuivan/uservault/internal/client/invoke"
	"github.com/taibuivan/uservault/internal/client/securechan"
	"github.com/taibuivan/uservault/internal/client/welcome"
)

// App holds the client for one interactive session.
type App struct {
	client   *backend.Client
	invoker  *invoke.Invoker
	channel  *securechan.Channel
	state    *authstate.Context
	gate     *welcome.Gate
	log      *slog.Logger
	reader   *bufio.Reader
	writer   io.Writer
	stopGate func()
}

// NewApp wires the SDK around client.
func NewApp(client *backend.Client, log *slog.Logger, in io.Reader, out io.Writer) *App {
	invoker := invoke.New(client)
	channel := securechan.New(invoker, log)
	state := authstate.New(client.Auth(), client.MFA(), invoker, log, channel)

	app := &App{
		client:  client,
		invoker: invoker,
		channel: channel,
		state:   state,
		log:     log,
		reader:  bufio.NewReader(in),
		writer:  out,
	}
	app.gate = welcome.NewGate(client.MFA(), welcome.NewMemorySessionStore(), terminalPresenter{writer: out}, log)
	return app
}

// Start restores the stored session and begins following it.
func (app *App) Start(ctx context.Context) {
	app.stopGate = app.state.Subscribe(func(snapshot authstate.Snapshot) {
		app.gate.Evaluate(context.Background(), snapshot)
	})
	app.state.Start(ctx)
	app.gate.Evaluate(ctx, app.state.Snapshot())
}

// Close stops background work. The stored session is kept.
func (app *App) Close() {
	if app.stopGate != nil {
		app.stopGate()
	}
	app.state.Close()
	app.channel.Close()
	app.client.Close()
}

func (app *App) isSignedIn() bool {
	return app.state.Snapshot().SignedIn()
}

func (app *App) status() string {
	snapshot := app.state.Snapshot()
	switch {
	case !snapshot.SignedIn():
		return "signed out"
	case snapshot.BanStatus.IsBanned:
		return snapshot.User.Email + " (banned)"
	case snapshot.MFAChallenge.NeedsMFA:
		return snapshot.User.Email + " (mfa required)"
	default:
		return snapshot.User.Email
	}
}

func (app *App) printf(format string, args ...any) {
	fmt.Fprintf(app.writer, format, args...)
}

// terminalPresenter prints the greeting and dismisses it right away.
type terminalPresenter struct {
	writer io.Writer
}

func (presenter terminalPresenter) Show(name string, done func()) {
	fmt.Fprintf(presenter.writer, "Welcome back, %s!\n", name)
	done()
}
