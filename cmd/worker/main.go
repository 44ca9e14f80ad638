// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

// Command worker runs the background job runner and the periodic task
// scheduler. It shares the PostgreSQL queue with the API server, so any
// number of worker processes can run side by side.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Wire the mail service and job handlers.
//  5. Expose /metrics on METRICS_PORT.
//  6. Start the runner workers and the scheduler.
//  7. Drain on SIGTERM/SIGINT.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/launchkit/launchkit/internal/accounts"
	"github.com/launchkit/launchkit/internal/jobs"
	"github.com/launchkit/launchkit/internal/mail"
	"github.com/launchkit/launchkit/internal/platform/config"
	"github.com/launchkit/launchkit/internal/platform/metrics"
	pgstore "github.com/launchkit/launchkit/internal/platform/postgres"
	"github.com/launchkit/launchkit/internal/tasks"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	log := rawLog.With(slog.String("app", "launchkit-worker"))
	slog.SetDefault(log)

	log.Info("[LaunchKit] worker_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Wiring ─────────────────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	mailRecords := mail.NewRecordRepository(pool)
	mailService := mail.NewService(mail.NewTransportFromConfig(cfg, log), mailRecords, collector, log)

	jobRepository := jobs.NewRepository(pool)
	sessionRepository := accounts.NewSessionRepository(pool)

	runner := jobs.NewRunner(jobRepository, collector, log, jobs.RunnerOptions{
		WorkerCount: cfg.WorkerCount,
	})
	tasks.RegisterHandlers(runner, mailService, cfg)

	scheduler := jobs.NewScheduler(log,
		tasks.CleanupExpiredSessions(sessionRepository, log),
		tasks.CheckDatabaseConnections(pool, mailService, cfg, log),
		tasks.MonitorEmailQueue(jobRepository, collector, log),
	)

	// ── 5. Metrics Endpoint ───────────────────────────────────────────────
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler(registry))

	metricsServer := &http.Server{
		Addr:         ":" + cfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("metrics_listener_started", slog.String("port", cfg.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics_listener_failed", slog.Any("error", err))
		}
	}()

	// ── 6. Run ────────────────────────────────────────────────────────────
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	runner.Start(runCtx)
	scheduler.Start(runCtx)

	log.Info("worker_started",
		slog.Int("workers", cfg.WorkerCount),
		slog.String("backend", cfg.EmailBackend),
	)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit

	log.Info("shutdown signal received", slog.String("signal", sig.String()))
	runCancel()
	runner.Stop()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics_listener_shutdown_failed", slog.Any("error", err))
	}

	log.Info("worker stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
