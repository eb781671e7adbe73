package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"NewsRadar/internal/app"
	"NewsRadar/internal/config"
	"NewsRadar/internal/logging"
)

func main() {
	var (
		sourceName = flag.String("source", "", "run only the named source")
		status     = flag.Bool("status", false, "print store snapshot and exit")
	)
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	if !*status {
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid configuration", "error", err)
			os.Exit(2)
		}
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *status {
		if err := application.Status(ctx); err != nil {
			logger.Error("status failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Run(ctx, *sourceName); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
