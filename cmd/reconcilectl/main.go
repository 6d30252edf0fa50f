// reconcilectl is the admin CLI for the reconciliation engine: inspecting
// schemas, managing mapping rules, and operating on sessions without going
// through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reconcile/internal/catalog"
	"github.com/JonMunkholm/reconcile/internal/config"
	"github.com/JonMunkholm/reconcile/internal/core"
	_ "github.com/JonMunkholm/reconcile/internal/core/schemas" // Register built-in schemas
	"github.com/JonMunkholm/reconcile/internal/logging"
	"github.com/JonMunkholm/reconcile/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries the dependencies subcommands share. The database connection
// is established lazily; registry-only commands never dial out.
type app struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	service *core.Service
}

// connect builds the pool and service. Commands that touch the store call
// this at the top of their RunE.
func (a *app) connect(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database URL: %w", err)
	}
	// An admin session needs a couple of connections, not the server pool.
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	a.pool = pool
	a.service = core.NewService(store.New(pool), nil, core.ServiceConfig{})
	return nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var verbose bool

	root := &cobra.Command{
		Use:   "reconcilectl",
		Short: "Admin CLI for the schema reconciliation engine",
		Long: `reconcilectl operates directly on the reconciliation engine's registry
and store: listing canonical schemas, correcting or deleting persisted
mapping rules, and inspecting or cleaning up sessions.

Configuration comes from the same environment variables (and optional
.env file) as the server; DATABASE_URL must point at the engine's
database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Overload()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			// Keep service log lines out of command output unless asked.
			level := "warn"
			if verbose {
				level = "debug"
			}
			logging.Setup(level, cfg.Logging.Format)

			if cfg.Catalog.Dir != "" {
				if _, err := catalog.Load(cfg.Catalog.Dir); err != nil {
					return fmt.Errorf("load schema catalog: %w", err)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newSchemasCmd(a),
		newRulesCmd(a),
		newSessionsCmd(a),
	)
	return root
}
