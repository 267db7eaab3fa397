package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mealplan/internal/clock"
	"github.com/smallbiznis/mealplan/internal/config"
	"github.com/smallbiznis/mealplan/internal/migration"
	"github.com/smallbiznis/mealplan/internal/observability"
	"github.com/smallbiznis/mealplan/internal/scheduler"
	"github.com/smallbiznis/mealplan/internal/seed"
	"github.com/smallbiznis/mealplan/internal/server"
	"github.com/smallbiznis/mealplan/internal/validation"
	"github.com/smallbiznis/mealplan/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rollbackSteps int

var rootCmd = &cobra.Command{
	Use:           "mealplan",
	Short:         "Meal subscription service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := fx.New(
			// Core Infrastructure
			config.Module,
			observability.Module,
			fx.Provide(RegisterSnowflake),
			db.Module,
			clock.Module,
			validation.Module,

			// Functional Domains
			migration.Module,
			server.Module,
			scheduler.Module,
		)
		app.Run()
		return app.Err()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDB(cmd.Context(), func(conn *gorm.DB, _ *snowflake.Node, log *zap.Logger) error {
			return migration.Migrate(conn, log.Named("migration"))
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDB(cmd.Context(), func(conn *gorm.DB, _ *snowflake.Node, log *zap.Logger) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.Rollback(sqlDB, rollbackSteps); err != nil {
				return err
			}
			log.Info("migrations rolled back", zap.Int("steps", rollbackSteps))
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the starter plan and salad catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithDB(cmd.Context(), func(conn *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
			if err := migration.Migrate(conn, log.Named("migration")); err != nil {
				return err
			}
			if err := seed.EnsureCatalog(context.Background(), conn, node); err != nil {
				return err
			}
			log.Info("catalog seeded")
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&rollbackSteps, "steps", 1, "number of migrations to revert")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWithDB boots only the pieces needed for a database connection, runs fn
// and shuts down.
func runWithDB(ctx context.Context, fn func(conn *gorm.DB, node *snowflake.Node, log *zap.Logger) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var runErr error
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		fx.NopLogger,
		fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, log *zap.Logger) {
			runErr = fn(conn, node, log)
		}),
	)

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
