package core

// scheduler.go runs the import-history retention job.
//
// The job deletes import runs older than the retention window. It runs once
// on start and then every interval until the context is cancelled. A failed
// purge is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the history purge.
type RetentionConfig struct {
	Retention time.Duration // How long runs are kept (default: 90 days)
	Interval  time.Duration // How often to purge (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.Retention <= 0 {
		c.Retention = 90 * 24 * time.Hour
	}
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler purges old import runs until ctx is cancelled.
// It always returns nil so it can run inside an errgroup.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) error {
	cfg = cfg.withDefaults()
	slog.Info("retention scheduler started",
		"retention", cfg.Retention.String(),
		"interval", cfg.Interval.String(),
	)

	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return nil
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	purged, err := s.PurgeHistory(ctx, cfg.Retention)
	if err != nil {
		slog.Error("retention purge failed", "error", err)
		return
	}
	slog.Info("purged old import runs",
		"runs_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
