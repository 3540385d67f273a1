// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command vault is the interactive UserVault client.
//
// The backend is read from USERVAULT_URL and USERVAULT_ANON_KEY. The session is
// kept in a file so it survives restarts. Arguments after the flags run a
// single command instead of the prompt:
//
//	vault whoami
//	vault invoke health '{"ping":true}'
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/uservault/internal/client/backend"
	"github.com/taibuivan/uservault/internal/client/cli"
)

func main() {
	sessionPath := flag.String("session", "", "session file (default: user config dir)")
	debug := flag.Bool("debug", false, "enable debug logging on stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "vault"))

	storage := backend.Storage(backend.NewMemoryStorage())
	if *sessionPath != "" {
		storage = backend.NewFileStorage(*sessionPath)
	} else if fileStorage, err := backend.DefaultFileStorage(); err == nil {
		storage = fileStorage
	} else {
		log.Warn("session_storage_unavailable", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(backend.NewFromEnv(log, storage), log, os.Stdin, os.Stdout)
	app.Start(ctx)
	defer app.Close()

	if args := flag.Args(); len(args) > 0 {
		app.Execute(ctx, args)
		return
	}
	app.Run(ctx)
}
