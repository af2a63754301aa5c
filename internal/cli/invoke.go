package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"viswords-api/internal/adapters/storage"
	"viswords-api/pkg/lambda"
	"viswords-api/pkg/server"
)

func newInvokeCmd() *cobra.Command {
	var (
		memory bool
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "invoke <event.json|->",
		Short: "Replay an API Gateway proxy event through the adapter",
		Long: `Loads the application exactly as the Lambda entrypoint does, serves one
proxy event read from a file (or stdin with "-") and prints the response envelope.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return fmt.Errorf("failed to read event: %w", err)
			}
			var event lambda.Event
			if err := json.Unmarshal(raw, &event); err != nil {
				return fmt.Errorf("invalid event: %w", err)
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := server.LoadOptions{Router: server.RouterOptions{Mode: "serverless"}}
			if memory {
				opts.StorageType = storage.StorageTypeMemory
			}
			manager := lambda.NewManager(func() lambda.LoadResult {
				return server.Load(cfg, logger, opts)
			}, logger)
			defer func() {
				if err := manager.Cleanup(); err != nil {
					logger.WithError(err).Warn("Cleanup failed")
				}
			}()

			resp, _ := manager.Handle(cmd.Context(), event)
			if err := manager.Adapter().LoadError(); err != nil {
				logger.WithError(err).Warn("Application failed to load, response came from the stand-in")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(resp)
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "keep uploads in memory instead of UPLOAD_FOLDER")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the printed envelope")
	return cmd
}
