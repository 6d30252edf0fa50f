package core

// scheduler.go provides background job scheduling for session maintenance.
//
// The maintenance job runs periodically to:
//  1. Purge Abandoned sessions older than the purge retention window
//  2. Archive Finalized sessions older than the archive window by dropping
//     their heavyweight grid/candidate/proposal payloads (summaries and
//     mappings survive for the listing APIs)
//
// The scheduler is designed to be long-running and context-aware for graceful
// shutdown. It logs progress and errors but does not fail the application
// if individual maintenance operations fail.

import (
	"context"
	"log/slog"
	"time"
)

// MaintenanceConfig holds configuration for the maintenance scheduler.
// All fields have sensible defaults if zero values are provided.
type MaintenanceConfig struct {
	PurgeRetention   time.Duration // Keep abandoned sessions this long (default: 7 days)
	ArchiveRetention time.Duration // Keep finalized grids this long (default: 30 days)
	CheckInterval    time.Duration // How often to run (default: 1h)
}

func (c MaintenanceConfig) withDefaults() MaintenanceConfig {
	if c.PurgeRetention <= 0 {
		c.PurgeRetention = 7 * 24 * time.Hour
	}
	if c.ArchiveRetention <= 0 {
		c.ArchiveRetention = 30 * 24 * time.Hour
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Hour
	}
	return c
}

// StartMaintenanceScheduler starts a background goroutine that periodically
// purges abandoned sessions and archives finalized ones.
// It runs immediately on start, then every CheckInterval.
// The scheduler stops when the context is cancelled.
func (s *Service) StartMaintenanceScheduler(ctx context.Context, cfg MaintenanceConfig) {
	cfg = cfg.withDefaults()

	slog.Info("maintenance scheduler started",
		"purge_retention", cfg.PurgeRetention.String(),
		"archive_retention", cfg.ArchiveRetention.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	// Run immediately on startup
	s.runMaintenanceJob(ctx, cfg)

	// Then run periodically
	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			s.runMaintenanceJob(ctx, cfg)
		}
	}
}

// runMaintenanceJob performs one purge + archive cycle.
func (s *Service) runMaintenanceJob(ctx context.Context, cfg MaintenanceConfig) {
	slog.Debug("maintenance job started")
	start := time.Now()

	purgeStart := time.Now()
	purged, err := s.PurgeAbandoned(ctx, cfg.PurgeRetention)
	if err != nil {
		slog.Error("abandoned session purge failed", "error", err)
	} else {
		slog.Info("purged abandoned sessions",
			"sessions_purged", purged,
			"duration_ms", time.Since(purgeStart).Milliseconds(),
		)
	}

	archiveStart := time.Now()
	archived, err := s.ArchiveFinalized(ctx, cfg.ArchiveRetention)
	if err != nil {
		slog.Error("finalized session archive failed", "error", err)
	} else {
		slog.Info("archived finalized session grids",
			"sessions_archived", archived,
			"duration_ms", time.Since(archiveStart).Milliseconds(),
		)
	}

	slog.Info("maintenance job completed", "duration_ms", time.Since(start).Milliseconds())
}
