// Command tbox-client is a terminal client for the TBox dashboard API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/tbox/dashboard/client/session"
	"github.com/tbox/dashboard/client/store"
	"github.com/tbox/dashboard/config"
	"github.com/tbox/dashboard/internal/observability"
	"go.uber.org/zap"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.NewClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 2
	}

	logger, err := observability.NewLogger(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kv, err := store.OpenSQLite(ctx, cfg.StorePath)
	if err != nil {
		logger.Error("failed to open session store", zap.Error(err))
		return 1
	}
	defer kv.Close()

	sessions := store.NewSessionStore(kv)
	api, err := session.NewAPIClient(cfg.APIBaseURL, sessions, cfg.VerifyTimeout)
	if err != nil {
		logger.Error("failed to create api client", zap.Error(err))
		return 1
	}

	a := newApp(api, sessions, os.Stdin, os.Stdout, logger).withVerifyTimeout(cfg.VerifyTimeout)
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
