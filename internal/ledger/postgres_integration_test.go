package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *PostgresRepository {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := Open(ctx, config.DBConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		Name:     "testdb",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db, "./migrations"))
	return NewPostgresRepository(db)
}

func TestLedger_IntentLifecycle(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	in := &domain.PaymentIntent{GatewayOrderID: "order_1", UserID: "u1", CartID: "c1", Receipt: "r1", AmountMinor: 10000, Currency: "INR", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateIntent(ctx, in))
	assert.ErrorIs(t, repo.CreateIntent(ctx, in), domain.ErrInvalidArgument)

	require.NoError(t, repo.MarkCaptured(ctx, "order_1", "pay_1", "o1"))
	assert.ErrorIs(t, repo.MarkCaptured(ctx, "order_1", "pay_1", "o1"), domain.ErrPaymentAlreadyProcessed)
	assert.ErrorIs(t, repo.MarkCaptured(ctx, "order_x", "pay_1", "o1"), domain.ErrPaymentNotFound)

	got, err := repo.GetIntent(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentCaptured, got.Status)
	assert.Equal(t, "pay_1", got.GatewayPaymentID)
}

func TestLedger_ReconciliationAndExpiry(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, repo.CreateIntent(ctx, &domain.PaymentIntent{GatewayOrderID: "order_old", UserID: "u1", CartID: "c1", Receipt: "r", AmountMinor: 500, Currency: "INR", CreatedAt: old}))
	require.NoError(t, repo.CreateIntent(ctx, &domain.PaymentIntent{GatewayOrderID: "order_flagged", UserID: "u1", CartID: "c1", Receipt: "r", AmountMinor: 500, Currency: "INR", CreatedAt: old}))

	c := &domain.ReconciliationCase{GatewayOrderID: "order_flagged", GatewayPaymentID: "pay_9", UserID: "u1", AmountMinor: 500, Currency: "INR", Reason: "insufficient_stock"}
	require.NoError(t, repo.RecordReconciliation(ctx, c))

	n, err := repo.ExpireStaleIntents(ctx, time.Now().UTC().Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	flagged, err := repo.GetIntent(ctx, "order_flagged")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentReconciliationRequired, flagged.Status)

	cases, total, err := repo.ListOpenReconciliations(ctx, domain.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c.ID, cases[0].ID)

	require.NoError(t, repo.ResolveReconciliation(ctx, c.ID))
	_, total, err = repo.ListOpenReconciliations(ctx, domain.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}
