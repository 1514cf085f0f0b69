package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	httpapi "github.com/fjod/storefront/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommand_IssuesVerifiableToken(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cmd_test_secret")
	t.Setenv("STORE_DRIVER", "memory")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", "u-42", "--role", "admin", "--ttl", "1h"})
	require.NoError(t, rootCmd.Execute())

	claims, err := httpapi.NewAuthenticator("cmd_test_secret").Validate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "u-42", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestTokenCommand_RejectsUnknownRole(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cmd_test_secret")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"token", "--user", "u-42", "--role", "root"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
