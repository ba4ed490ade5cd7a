// Worker runs scheduled maintenance: audit log retention on AUDIT_PURGE_SCHEDULE.
// Requires DATABASE_URL; AUDIT_RETENTION_DAYS=0 disables purging.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"portfolio-admin/internal/audit"
	auditrepo "portfolio-admin/internal/audit/repository"
	"portfolio-admin/internal/config"
	"portfolio-admin/internal/db"
)

const defaultPurgeSchedule = "@daily"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "err", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("worker: DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	purger := audit.NewPurger(auditrepo.NewPostgresRepository(pool), cfg.AuditRetentionDays, logger)

	schedule := cfg.AuditPurgeSchedule
	if schedule == "" {
		schedule = defaultPurgeSchedule
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))
	if _, err := c.AddFunc(schedule, purger.Run); err != nil {
		logger.Error("worker: invalid AUDIT_PURGE_SCHEDULE", "schedule", schedule, "err", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("worker: started", "schedule", schedule, "retention_days", cfg.AuditRetentionDays)

	<-ctx.Done()
	logger.Info("worker: shutting down")
	<-c.Stop().Done()
	logger.Info("worker: stopped")
}
