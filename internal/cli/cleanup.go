package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"viswords-api/internal/retention"
	"viswords-api/pkg/server"
)

func newCleanupCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove uploads older than the retention period once",
		Long: `Runs the upload retention sweep a single time. The period comes from
UPLOAD_RETENTION unless --older-than is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if olderThan > 0 {
				cfg.Upload.Retention = olderThan
			}

			container, err := server.NewContainer(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer container.Close()

			sweeper := retention.New(container.UploadService, cfg.Upload, logger)
			if !sweeper.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "Retention disabled; set UPLOAD_RETENTION or --older-than")
				return nil
			}

			removed, err := sweeper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d uploads older than %s\n", removed, cfg.Upload.Retention)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "override UPLOAD_RETENTION for this run")
	return cmd
}
