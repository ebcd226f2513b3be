package main

import (
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tgsession/internal/app"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP de sesiones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			container, err := app.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = container.Close() }()

			return container.Serve()
		},
	}
}
