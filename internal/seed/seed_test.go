package seed

import (
	"context"
	"testing"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/memory"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestRun_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	cat := catalog.NewService(st)

	first, err := Run(ctx, cat, st, "Admin@Example.com")
	assert.NilError(t, err)
	assert.Equal(t, first.Products, len(sampleProducts))
	assert.Equal(t, first.Skipped, 0)

	second, err := Run(ctx, cat, st, "admin@example.com")
	assert.NilError(t, err)
	assert.Equal(t, second.Products, 0)
	assert.Equal(t, second.Skipped, len(sampleProducts))
	assert.Equal(t, second.AdminID, first.AdminID, "admin is upserted by email")

	admin, err := st.FindUser(ctx, first.AdminID)
	assert.NilError(t, err)
	assert.Equal(t, admin.Role, domain.RoleAdmin)
	assert.Equal(t, admin.Email, "admin@example.com")
}

func TestRun_SizedProductsGetVariants(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	cat := catalog.NewService(st)

	_, err := Run(ctx, cat, st, "")
	assert.NilError(t, err)

	page, err := cat.ListProducts(ctx, domain.ProductFilter{Search: "Denim Jacket"}, domain.PageRequest{})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(page.Items, 1))

	details, err := cat.GetProduct(ctx, page.Items[0].ID)
	assert.NilError(t, err)
	assert.Assert(t, details.HasVariants)
	assert.Assert(t, is.Len(details.Variants, len(sizes)))

	scarf, err := cat.ListProducts(ctx, domain.ProductFilter{Search: "Silk Scarf"}, domain.PageRequest{})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(scarf.Items, 1))
	assert.Assert(t, !scarf.Items[0].HasVariants)
}
