package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"viswords-api/internal/config"
	"viswords-api/internal/database"
	"viswords-api/internal/repositories/sqlite"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the upload database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDatabase(func(cmd *cobra.Command, cm *database.ConnectionManager, logger *logrus.Logger) error {
				if err := cm.Migrate(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withDatabase(func(cmd *cobra.Command, cm *database.ConnectionManager, logger *logrus.Logger) error {
				if err := database.NewMigrationManager(cm.GetDB(), logger).RollbackMigration(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the schema version and upload count",
			Args:  cobra.NoArgs,
			RunE: withDatabase(func(cmd *cobra.Command, cm *database.ConnectionManager, logger *logrus.Logger) error {
				status, err := database.NewMigrationManager(cm.GetDB(), logger).GetMigrationStatus()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", cm.Path())
				fmt.Fprintf(cmd.OutOrStdout(), "  Version: %d\n", status.Version)
				fmt.Fprintf(cmd.OutOrStdout(), "  Applied: %t\n", status.Applied)
				fmt.Fprintf(cmd.OutOrStdout(), "  Dirty:   %t\n", status.Dirty)

				if status.Applied {
					count, err := sqlite.NewUploadRepository(cm.GetDB(), logger).Count(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  Uploads: %s\n", humanize.Comma(count))
				}
				return nil
			}),
		},
	)
	return cmd
}

type databaseFunc func(cmd *cobra.Command, cm *database.ConnectionManager, logger *logrus.Logger) error

// withDatabase opens DATABASE (or --db) around fn
func withDatabase(fn databaseFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return openDatabase(cmd, cfg, logger, fn)
	}
}

func openDatabase(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger, fn databaseFunc) error {
	cm := database.NewConnectionManager(database.ConnectionConfigFrom(cfg.Database, logger))
	if err := cm.Connect(cmd.Context()); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer cm.Close()

	return fn(cmd, cm, logger)
}
