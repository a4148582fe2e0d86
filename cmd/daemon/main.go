// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/halamedia/aircheck/internal/api"
	"github.com/halamedia/aircheck/internal/capture"
	"github.com/halamedia/aircheck/internal/config"
	"github.com/halamedia/aircheck/internal/health"
	aclog "github.com/halamedia/aircheck/internal/log"
	"github.com/halamedia/aircheck/internal/schedule"
	"github.com/halamedia/aircheck/internal/status"
	"github.com/halamedia/aircheck/internal/store"
	"github.com/halamedia/aircheck/internal/trigger"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	aclog.Configure(aclog.Config{
		Level:   "info",
		Service: "aircheck",
		Version: version,
	})

	logger := aclog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Determine config path:
	// - Explicit via --config
	// - Otherwise auto-load ${AIRCHECK_DATA}/config.yaml if it exists
	effectiveConfigPath := strings.TrimSpace(*configPath)
	if effectiveConfigPath == "" {
		dataDir := strings.TrimSpace(config.ParseString("AIRCHECK_DATA", config.Default().DataDir))
		autoPath := filepath.Join(dataDir, "config.yaml")
		if _, err := os.Stat(autoPath); err == nil {
			effectiveConfigPath = autoPath
		}
	}

	cfg, err := config.NewLoader(effectiveConfigPath).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effectiveConfigPath).
			Msg("failed to load configuration")
	}

	// Re-configure logger with loaded configuration
	aclog.Configure(aclog.Config{
		Level:   cfg.LogLevel,
		Service: "aircheck",
		Version: version,
	})

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("timezone", cfg.Timezone).
			Msg("invalid timezone")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Str("data_dir", cfg.DataDir).
		Str("timezone", cfg.Timezone).
		Msg("starting aircheck")

	diskStore, err := store.OpenDisk(cfg.DataDir)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("data_dir", cfg.DataDir).
			Msg("failed to open recording store")
	}
	defer func() {
		if err := diskStore.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close recording store")
		}
	}()

	registry, err := schedule.NewRegistry(filepath.Join(cfg.DataDir, "schedules.json"))
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("failed to load schedule registry")
	}
	if err := registry.Seed(systemSchedules()); err != nil {
		logger.Fatal().
			Err(err).
			Msg("failed to seed system schedules")
	}
	logger.Info().
		Int("schedules", len(registry.List())).
		Msg("schedule registry loaded")

	statusLog := status.NewLog(cfg.StatusLogCap)

	recorder := capture.NewRecorder(diskStore, statusLog, capture.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		SegmentTimeout: cfg.SegmentTimeout,
		PollInterval:   cfg.PlaylistPollInterval,
	})

	engine := trigger.New(registry, recorder, trigger.SystemClock{Loc: loc}, cfg.TickInterval)

	retention := store.NewRetention(diskStore, cfg.RetentionDays, cfg.RetentionHour, func() time.Time {
		return time.Now().In(loc)
	}, statusLog)

	healthMgr := health.NewManager(version)
	healthMgr.RegisterChecker(health.CheckerFunc{
		CheckName: "store",
		Fn: func(ctx context.Context) health.CheckResult {
			if _, err := diskStore.TotalBytes(ctx); err != nil {
				return health.CheckResult{Status: health.StatusUnhealthy, Error: err.Error()}
			}
			return health.CheckResult{Status: health.StatusHealthy}
		},
	})

	apiServer := api.NewServer(registry, engine, diskStore, statusLog, healthMgr)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		return retention.Run(gctx)
	})
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().
			Err(err).
			Msg("daemon failed")
	}

	logger.Info().Msg("daemon exiting")
}
