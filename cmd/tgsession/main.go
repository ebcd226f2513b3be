package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/tgsession/internal/config"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
)

func main() {
	// .env opcional: en prod las variables vienen del entorno.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "tgsession",
		Short: "Núcleo de sesiones para Mini Apps de Telegram",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.example.yaml", "Path al YAML de configuración")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newEncCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig carga config + inicializa el logger singleton.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "tgsession",
	})
	return cfg, nil
}
