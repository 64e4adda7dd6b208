package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/arbstream/internal/api"
	"github.com/yourusername/arbstream/internal/cache"
	"github.com/yourusername/arbstream/internal/database"
	"github.com/yourusername/arbstream/internal/datasource"
	"github.com/yourusername/arbstream/internal/health"
	"github.com/yourusername/arbstream/internal/repository"
	"github.com/yourusername/arbstream/internal/scanner"
	"github.com/yourusername/arbstream/internal/scheduler"
	"github.com/yourusername/arbstream/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the periodic scanner and the HTTP API until interrupted",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := setup(ctx); err != nil {
		return err
	}

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("ArbStream starting")

	sources, err := datasource.NewFactory(cfg, appLog).NewSources()
	if err != nil {
		return fmt.Errorf("failed to create sources: %w", err)
	}

	st := store.New()
	checker := health.NewChecker(health.Config{
		ServiceName:  cfg.App.Name,
		Version:      Version,
		Commit:       GitCommit,
		CheckTimeout: 2 * time.Second,
		Logger:       appLog,
	})

	var sc *scanner.Scanner
	server := api.NewServer(api.Config{
		ServiceName:    cfg.App.Name,
		Version:        Version,
		Addr:           cfg.ListenAddr(),
		CORSOrigins:    cfg.Server.CORSOrigins,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
		Bookmakers:     cfg.Bookmakers,
	}, st, api.TriggerFunc(func() bool { return sc.Trigger() }), checker, appLog)

	sinks := []scanner.Sink{server.Hub()}

	if cfg.Database.Enabled {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		repos, err := repository.NewRepositories(db, appLog)
		if err != nil {
			return err
		}
		sinks = append(sinks, repos.History)
		checker.AddCheck("postgres", db)
		appLog.Info("Opportunity history enabled")
	}

	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		publisher := cache.NewRedisSnapshotPublisher(rdb, cfg.Redis.Key, cfg.Redis.Channel, appLog)
		sinks = append(sinks, publisher)
		checker.AddCheck("redis", publisher)
		appLog.Info("Redis snapshot fan-out enabled")
	}

	sc = scanner.New(scanner.ConfigFrom(cfg), sources, st, appLog, sinks...)
	defer sc.Stop()

	sched := scheduler.NewScheduler(appLog)
	err = sched.ScheduleEvery("scan", cfg.ScanInterval(), func(jobCtx context.Context) {
		if _, err := sc.RunOnce(jobCtx); err != nil && !errors.Is(err, scanner.ErrScanInProgress) {
			appLog.WithError(err).Warn("Scheduled scan failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule scans: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ScanTimeout()+5*time.Second)
		defer cancel()
		if err := sched.Stop(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Scheduler did not stop cleanly")
		}
	}()

	if cfg.Scanner.ScanOnStartup {
		sc.Trigger()
	}

	checker.SetReady(true)
	appLog.WithFields(logrus.Fields{
		"sources":  len(sources),
		"sinks":    len(sinks),
		"interval": cfg.ScanInterval().String(),
		"next_run": sched.NextRun().Format(time.RFC3339),
	}).Info("ArbStream running")

	err = server.ListenAndServe(ctx)
	checker.SetReady(false)
	stop()
	appLog.Info("ArbStream shutting down")
	return err
}
