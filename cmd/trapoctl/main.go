// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/olegiv/trapo-admin/internal/apiclient"
	"github.com/olegiv/trapo-admin/internal/cache"
	"github.com/olegiv/trapo-admin/internal/config"
	"github.com/olegiv/trapo-admin/internal/console"
	"github.com/olegiv/trapo-admin/internal/logging"
	"github.com/olegiv/trapo-admin/internal/scheduler"
	"github.com/olegiv/trapo-admin/internal/service"
	"github.com/olegiv/trapo-admin/internal/session"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	sessionFile := flag.String("session", "", "Session file path (overrides TRAPO_SESSION_FILE)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "trapoctl - Trapo store admin console\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_API_URL           Store backend base URL (default: http://localhost:5000)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_SESSION_FILE      Session file (default: <user config dir>/trapo-admin/session.json)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_PAGE_SIZE         Rows per page (default: 10)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_REFRESH_INTERVAL  List auto-refresh interval, 0 disables (default: 30s)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRAPO_LOG_LEVEL         debug|info|warn|error (default: info)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("trapoctl %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(*sessionFile); err != nil {
		slog.Error("console error", "error", err)
		os.Exit(1)
	}
}

func run(sessionFile string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, nil)
	slog.SetDefault(logger)

	if sessionFile == "" {
		sessionFile = cfg.SessionFile
	}
	if sessionFile == "" {
		if sessionFile, err = session.DefaultFilePath(); err != nil {
			return err
		}
	}

	client, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		Burst:     cfg.APIBurst,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	statsCache := cache.NewMemoryCache(cache.MemoryCacheOptions{
		DefaultTTL: cfg.CacheTTL,
		MaxSize:    cfg.CacheMaxSize,
	})
	defer func() { _ = statsCache.Close() }()

	sched := scheduler.New(logger)
	sched.Start()
	defer sched.Stop()

	c := console.New(console.Config{
		In:              os.Stdin,
		Out:             os.Stdout,
		ReadPassword:    console.TerminalPassword(int(os.Stdin.Fd()), os.Stdout),
		Client:          client,
		Persistence:     session.NewFilePersistence(sessionFile),
		Scheduler:       sched,
		Dashboard:       service.NewDashboard(statsCache, cfg.CacheTTL, logger),
		PageSize:        cfg.PageSize,
		SearchDelay:     cfg.SearchDebounce,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return c.Run(ctx)
}
