package cmd

import (
	"log/slog"

	"github.com/fjod/storefront/internal/app"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply ledger migrations and create document store indexes",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	repos, err := app.OpenRepos(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close(ctx)

	if err := repos.Migrate(ctx, cfg); err != nil {
		return err
	}
	slog.Info("migrations applied", "store", cfg.Store.Driver)
	return nil
}
