package cli

import (
	"os/signal"
	"syscall"

	"github.com/gear6io/metastore/server"
	"github.com/gear6io/metastore/server/config"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog server",
		Long: `Run the catalog server until interrupted.

Without --config the built-in defaults are used: a SQLite metadata store
and a warehouse under ./data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadDefaultConfig()
			if configFile != "" {
				loaded, err := config.LoadConfig(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			logger, err := config.SetupLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to create server")
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	return cmd
}
