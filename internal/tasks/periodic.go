// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchkit/launchkit/internal/accounts"
	"github.com/launchkit/launchkit/internal/jobs"
	"github.com/launchkit/launchkit/internal/mail"
	"github.com/launchkit/launchkit/internal/platform/config"
	"github.com/launchkit/launchkit/internal/platform/metrics"
)

// # Scheduling Intervals

const (
	// SessionCleanupInterval is how often expired sessions are purged.
	SessionCleanupInterval = 24 * time.Hour

	// ConnectionCheckInterval is how often the database connection count
	// is compared against the warning threshold.
	ConnectionCheckInterval = time.Hour

	// QueueMonitorInterval is how often the pending job count is sampled.
	QueueMonitorInterval = 5 * time.Minute

	// PendingJobsWarnThreshold is the queue depth above which the monitor
	// logs a warning about mail delivery backing up.
	PendingJobsWarnThreshold = 50
)

// CleanupExpiredSessions purges refresh sessions past their expiry time.
func CleanupExpiredSessions(sessions accounts.SessionRepository, logger *slog.Logger) jobs.PeriodicTask {
	return jobs.PeriodicTask{
		Name:     "cleanup_expired_sessions",
		Interval: SessionCleanupInterval,
		Run: func(ctx context.Context) error {
			removed, err := sessions.DeleteExpired(ctx)
			if err != nil {
				return fmt.Errorf("session_cleanup_failed: %w", err)
			}
			if removed > 0 {
				logger.Info("expired_sessions_removed", "count", removed)
			}
			return nil
		},
	}
}

// CheckDatabaseConnections samples pg_stat_activity and emails the
// configured admins when the connection count crosses the threshold.
func CheckDatabaseConnections(pool *pgxpool.Pool, sender EmailSender, configuration *config.Config, logger *slog.Logger) jobs.PeriodicTask {
	return jobs.PeriodicTask{
		Name:     "check_db_connections",
		Interval: ConnectionCheckInterval,
		Run: func(ctx context.Context) error {
			var connections int
			query := `SELECT COUNT(*) FROM pg_stat_activity WHERE datname = current_database()`
			if err := pool.QueryRow(ctx, query).Scan(&connections); err != nil {
				return fmt.Errorf("connection_count_query_failed: %w", err)
			}

			if connections < configuration.DBConnWarnThreshold {
				return nil
			}

			logger.Warn("db_connection_threshold_exceeded",
				"connections", connections,
				"threshold", configuration.DBConnWarnThreshold,
			)

			if len(configuration.AdminEmails) == 0 {
				return nil
			}

			subject := fmt.Sprintf("%s: high database connection count", configuration.ProjectName)
			body, err := mail.RenderAdminAlert(mail.AdminAlertData{
				ProjectName: configuration.ProjectName,
				Subject:     subject,
				Detail: fmt.Sprintf("The database currently holds %d connections, above the configured threshold of %d.",
					connections, configuration.DBConnWarnThreshold),
			})
			if err != nil {
				return fmt.Errorf("admin_alert_render_failed: %w", err)
			}

			return sender.Send(ctx, mail.Message{
				From:     configuration.DefaultFromEmail,
				To:       configuration.AdminEmails,
				Subject:  subject,
				TextBody: body,
			})
		},
	}
}

// MonitorEmailQueue samples the pending job count, feeds the queue-depth
// gauge, and warns when the queue backs up.
func MonitorEmailQueue(repository jobs.Repository, collector *metrics.Collector, logger *slog.Logger) jobs.PeriodicTask {
	return jobs.PeriodicTask{
		Name:     "monitor_email_queue",
		Interval: QueueMonitorInterval,
		Run: func(ctx context.Context) error {
			pending, err := repository.CountPending(ctx, jobs.QueueDefault)
			if err != nil {
				return fmt.Errorf("pending_count_failed: %w", err)
			}

			collector.SetPendingJobs(pending)

			if pending >= PendingJobsWarnThreshold {
				logger.Warn("email_queue_backed_up", "pending", pending)
			}
			return nil
		},
	}
}
