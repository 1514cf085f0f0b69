package cmd

import (
	"fmt"

	"github.com/fjod/storefront/internal/app"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/seed"
	"github.com/spf13/cobra"
)

var adminEmail string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the sample catalog and an admin account",
	Long: `Seed inserts the sample products (with S/M/L variants for clothing) and
upserts an admin user. Running it twice leaves existing products untouched.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "admin@example.com", "Email of the admin account to upsert (empty to skip)")
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	res, err := seed.Run(ctx, catalog.NewService(repos.Catalog), repos.Users, adminEmail)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "products created: %d, skipped: %d\n", res.Products, res.Skipped)
	if res.AdminID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "admin user id: %s\n", res.AdminID)
	}
	return nil
}
