package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/mongostore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// Transactions need a replica set, so the container runs as a single-node one.
func setupTestDB(t *testing.T) (Repository, *mongostore.Transactor) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := mongostore.ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.(*mongoRepository).CreateIndexes(ctx))
	return repo, mongostore.NewTransactor(db)
}

func TestMongoCatalog_DecrementIsConditional(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{ID: "p1", Name: "Tee", Slug: "tee", BasePrice: 10, Stock: 3}))

	require.NoError(t, repo.DecrementProductStock(ctx, "p1", 2))

	err := repo.DecrementProductStock(ctx, "p1", 2)
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 1, ise.Available)

	p, err := repo.FindProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)

	assert.ErrorIs(t, repo.DecrementProductStock(ctx, "missing", 1), domain.ErrProductNotFound)
	assert.ErrorIs(t, repo.DecrementVariantStock(ctx, "missing", 1), domain.ErrVariantNotFound)
}

func TestMongoCatalog_ConcurrentDecrementsNeverGoNegative(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{ID: "p1", Name: "Tee", Slug: "tee", BasePrice: 10}))
	require.NoError(t, repo.CreateVariant(ctx, &domain.Variant{ID: "v1", ProductID: "p1", SKU: "T-M", Stock: 5, Active: true}))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.DecrementVariantStock(ctx, "v1", 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	v, err := repo.FindVariant(ctx, "v1")
	require.NoError(t, err)
	assert.Zero(t, v.Stock)
}

func TestMongoCatalog_TransactionRollsBackDecrements(t *testing.T) {
	repo, tx := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{ID: "p1", Name: "Tee", Slug: "tee", BasePrice: 10, Stock: 3}))
	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{ID: "p2", Name: "Cap", Slug: "cap", BasePrice: 5, Stock: 1}))

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := repo.DecrementProductStock(ctx, "p1", 1); err != nil {
			return err
		}
		return repo.DecrementProductStock(ctx, "p2", 2)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	p, err := repo.FindProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestMongoCatalog_ListAndSlugUniqueness(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{ID: "p1", Name: "Oxford Shirt", Slug: "oxford-shirt", Brand: "Acme", Category: "shirts", Stock: 40}))
	require.NoError(t, repo.CreateProduct(ctx, &domain.Product{ID: "p2", Name: "Chinos", Slug: "chinos", Category: "trousers", Stock: 2}))
	assert.ErrorIs(t, repo.CreateProduct(ctx, &domain.Product{ID: "p3", Name: "Oxford Shirt", Slug: "oxford-shirt"}), domain.ErrDuplicateSlug)

	items, total, err := repo.ListProducts(ctx, domain.ProductFilter{Search: "acme"}, domain.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID)

	_, total, err = repo.ListProducts(ctx, domain.ProductFilter{LowStock: true}, domain.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
