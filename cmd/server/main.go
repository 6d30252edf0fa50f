package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/reconcile/internal/catalog"
	"github.com/JonMunkholm/reconcile/internal/config"
	"github.com/JonMunkholm/reconcile/internal/core"
	_ "github.com/JonMunkholm/reconcile/internal/core/schemas" // Register built-in schemas
	"github.com/JonMunkholm/reconcile/internal/loader"
	"github.com/JonMunkholm/reconcile/internal/logging"
	"github.com/JonMunkholm/reconcile/internal/store"
	"github.com/JonMunkholm/reconcile/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"detection_max_concurrent", cfg.Session.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	// Connect to database
	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Info("connected to database", "name", dbName)
	} else {
		slog.Info("connected to database")
	}

	// Ensure engine tables exist
	if err := store.Bootstrap(ctx, pool); err != nil {
		slog.Error("failed to bootstrap schema", "error", err)
		os.Exit(1)
	}

	// Load catalog schemas on top of the compiled-in ones
	if cfg.Catalog.Dir != "" {
		loaded, err := catalog.Load(cfg.Catalog.Dir)
		if err != nil {
			slog.Error("failed to load schema catalog", "dir", cfg.Catalog.Dir, "error", err)
			os.Exit(1)
		}
		slog.Info("catalog schemas loaded", "dir", cfg.Catalog.Dir, "count", loaded)
	}

	slog.Info("schemas registered",
		"count", core.SchemaCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("schema group", "group", group, "schemas", len(core.ByGroup(group)))
	}

	// Create service with config
	service := core.NewService(store.New(pool), loader.NewPostgres(pool), core.ServiceConfig{
		Detector: core.DetectorOptions{
			MaxHeaderSearchRows: cfg.Detection.MaxHeaderSearchRows,
			MinDataRows:         cfg.Detection.MinDataRows,
			MinHeaderDensity:    cfg.Detection.MinHeaderDensity,
			MinHeaderTextRatio:  cfg.Detection.MinHeaderTextRatio,
			MinDataDensity:      cfg.Detection.MinDataDensity,
			MinDataTypedRatio:   cfg.Detection.MinDataTypedRatio,
			MaxSampleValues:     cfg.Detection.MaxSampleValues,
		},
		Matcher: core.MatcherOptions{
			FuzzyFloor:      cfg.Matching.FuzzyFloor,
			AliasConfidence: cfg.Matching.AliasConfidence,
		},
		MaxConcurrentDetections: cfg.Session.MaxConcurrent,
		DetectionWait:           cfg.Session.MaxWaitTime,
	})

	// Create server with config
	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	if cfg.Maintenance.Enabled {
		go service.StartMaintenanceScheduler(jobCtx, core.MaintenanceConfig{
			PurgeRetention:   cfg.Maintenance.AbandonedRetention,
			ArchiveRetention: cfg.Maintenance.ArchiveAfter,
			CheckInterval:    cfg.Maintenance.CheckInterval,
		})
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight detections to finish (with timeout)
		queue := service.QueueStatus()
		if queue.Active > 0 {
			slog.Info("waiting for detections to complete", "active", queue.Active)
			if err := service.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("detections did not complete in time", "error", err)
			} else {
				slog.Info("all detections completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
