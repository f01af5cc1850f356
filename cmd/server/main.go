package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lantern/internal/config"
	"lantern/internal/db"
	"lantern/internal/jobs"
	"lantern/internal/store"
	"lantern/internal/store/memory"
	"lantern/internal/store/postgres"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lantern",
		Short:         "Activity tracking and friends API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newPurgeStoriesCommand(), newWatchNotificationsCommand())
	return root
}

// env bundles what every subcommand needs.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *sqlx.DB
}

func setup(needDB bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	e := &env{cfg: cfg, log: logger}

	if cfg.UseMemoryStore() {
		if needDB {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		logger.Warn("DATABASE_URL not set; using in-memory store, data is lost on restart")
		return e, nil
	}

	dbConn, err := sqlx.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	dbConn.SetMaxOpenConns(10)
	dbConn.SetConnMaxLifetime(2 * time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	e.db = dbConn
	return e, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (e *env) store() store.Store {
	if e.db == nil {
		return memory.New(nil)
	}
	return postgres.New(e.db)
}

func (e *env) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	_ = e.log.Sync()
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.close()
			if err := db.RunMigrations(cmd.Context(), e.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			e.log.Info("migrations applied")
			return nil
		},
	}
}

func newPurgeStoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-stories",
		Short: "Delete expired stories once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(true)
			if err != nil {
				return err
			}
			defer e.close()
			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.StoreTimeout)
			defer cancel()
			n, err := jobs.NewStoryPurger(e.store(), e.log, e.cfg.StoreTimeout).Purge(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired stories\n", n)
			return nil
		},
	}
}
