package cmd

import (
	"fmt"
	"os"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront API server and maintenance commands",
	Long: `Storefront serves the catalog, cart, wishlist, checkout and admin API.

Without a subcommand it starts the HTTP server. Configuration is read from
config.yaml and environment variables (a .env file is loaded if present).`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing config.yaml")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	// missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.New(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
