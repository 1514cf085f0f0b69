package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	httpapi "github.com/fjod/storefront/internal/http"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for local testing",
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id placed in the sub claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleCustomer), "Role claim: customer, vendor or admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	role := domain.Role(tokenRole)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", tokenRole)
	}
	if tokenTTL <= 0 {
		return errors.New("ttl must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tok, err := httpapi.NewAuthenticator(cfg.Auth.JWTSecret).IssueToken(tokenUser, role, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
