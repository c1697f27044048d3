// Package commands implements the habitgrid operator CLI.
package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yourorg/habitgrid/internal/config"
	appdb "github.com/yourorg/habitgrid/internal/db"
	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/store"
	"github.com/yourorg/habitgrid/internal/tracker"
)

var (
	envFile string
	verbose bool
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habitgrid",
		Short: "Operate a habitgrid installation",
		Long: `Operator commands for habitgrid.

Commands read the same environment as the server (DB_DRIVER, DB_PATH,
DB_HOST, ...), loading an optional .env file first.

Examples:
  habitgrid migrate
  habitgrid user create alice
  habitgrid habit add "Read 20 pages"
  habitgrid stats alice`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load(envFile)
			if verbose {
				return logger.Init(logger.Config{Debug: true, Prefix: "habitgrid-cli"})
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewHabitCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewShareCmd())
	cmd.AddCommand(NewHealthCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// runtime is what data commands operate on.
type runtime struct {
	cfg     *config.Config
	conn    *sql.DB
	store   *store.Store
	tracker *tracker.Service
}

func (r *runtime) Close() error {
	return r.conn.Close()
}

// openRuntime connects to the configured database and applies migrations.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	// fail fast instead of waiting out the server's retry budget
	cfg.DBConnectAttempts = 1

	conn, dialect, err := appdb.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := appdb.EnsureSchema(ctx, conn, dialect); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	st := store.New(conn, dialect)
	return &runtime{
		cfg:   cfg,
		conn:  conn,
		store: st,
		tracker: tracker.New(st, tracker.Options{
			Location:      cfg.Location(),
			MaxStreakDays: cfg.MaxStreakDays,
		}),
	}, nil
}
