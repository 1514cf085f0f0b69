package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func total(f float64) *float64 { return &f }

func TestDirect_CreatesPendingOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.direct.Complete(ctx, "u1", &CompleteRequest{
		ShippingAddress: f.address,
		Items: []domain.OrderItem{
			{ProductID: "tee", Name: "Cotton Tee", Quantity: 2, Price: 50},
			{ProductID: "jeans", VariantID: "jeans-32", Name: "Denim Jeans", Quantity: 1, Price: 80},
		},
		TotalAmount: total(180),
	})
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, domain.FulfillmentProcessing, o.FulfillmentStatus)
	assert.Equal(t, domain.CheckoutDirect, o.Mode)
	assert.Nil(t, o.Payment)
	assert.Equal(t, 180.0, o.TotalAmount)

	assert.Equal(t, 1, f.stock(t, "tee"))
	v, err := f.store.FindVariant(ctx, "jeans-32")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Stock)

	saved, err := f.store.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items, saved.Items)
	assert.Equal(t, 1, f.rec.outcome("direct:success"))
}

func TestDirect_MissingProductRollsBackEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.direct.Complete(ctx, "u1", &CompleteRequest{
		ShippingAddress: f.address,
		Items: []domain.OrderItem{
			{ProductID: "tee", Quantity: 1, Price: 50},
			{ProductID: "ghost", Quantity: 1, Price: 10},
		},
	})
	assert.ErrorIs(t, err, domain.ErrOrderCreationFailed)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Zero(t, f.orderCount(t, "u1"), "no orphan order")
	assert.Equal(t, 3, f.stock(t, "tee"), "earlier decrement is undone")

	events, err := f.store.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDirect_VariantMustBelongToExistingProduct(t *testing.T) {
	tests := []struct {
		name string
		item domain.OrderItem
		want error
	}{
		{"unknown product with a real variant", domain.OrderItem{ProductID: "ghost", VariantID: "jeans-32", Quantity: 1, Price: 80}, domain.ErrProductNotFound},
		{"variant of another product", domain.OrderItem{ProductID: "tee", VariantID: "jeans-32", Quantity: 1, Price: 80}, domain.ErrVariantNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			ctx := context.Background()

			_, err := f.direct.Complete(ctx, "u1", &CompleteRequest{
				ShippingAddress: f.address,
				Items:           []domain.OrderItem{tt.item},
			})
			assert.ErrorIs(t, err, domain.ErrOrderCreationFailed)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrNotFound)

			assert.Zero(t, f.orderCount(t, "u1"))
			v, err := f.store.FindVariant(ctx, "jeans-32")
			require.NoError(t, err)
			assert.Equal(t, 4, v.Stock, "variant stock untouched")
			assert.Equal(t, 3, f.stock(t, "tee"))
		})
	}
}

func TestDirect_FillsNameAndSKUFromCatalog(t *testing.T) {
	f := setup(t)

	res, err := f.direct.Complete(context.Background(), "u1", &CompleteRequest{
		ShippingAddress: f.address,
		Items:           []domain.OrderItem{{ProductID: "jeans", VariantID: "jeans-32", Quantity: 1, Price: 80}},
	})
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "Denim Jeans", res.Order.Items[0].Name)
	assert.Equal(t, "JEANS-32", res.Order.Items[0].SKU)
}

func TestDirect_InsufficientStockReportsAvailable(t *testing.T) {
	f := setup(t)

	_, err := f.direct.Complete(context.Background(), "u1", &CompleteRequest{
		ShippingAddress: f.address,
		Items:           []domain.OrderItem{{ProductID: "tee", Quantity: 4, Price: 50}},
	})
	assert.ErrorIs(t, err, domain.ErrOrderCreationFailed)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 3, ise.Available)
	assert.Equal(t, 3, f.stock(t, "tee"), "stock is never clamped")
}

func TestDirect_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *CompleteRequest
	}{
		{name: "nil request"},
		{name: "no items", req: &CompleteRequest{}},
		{name: "zero quantity", req: &CompleteRequest{Items: []domain.OrderItem{{ProductID: "tee", Quantity: 0, Price: 1}}}},
		{name: "negative price", req: &CompleteRequest{Items: []domain.OrderItem{{ProductID: "tee", Quantity: 1, Price: -1}}}},
		{name: "blank product", req: &CompleteRequest{Items: []domain.OrderItem{{Quantity: 1, Price: 1}}}},
		{name: "no address", req: &CompleteRequest{Items: []domain.OrderItem{{ProductID: "tee", Quantity: 1, Price: 1}}}},
		{name: "total mismatch", req: &CompleteRequest{
			ShippingAddress: domain.Address{Line1: "x", City: "y"},
			Items:           []domain.OrderItem{{ProductID: "tee", Quantity: 2, Price: 50}},
			TotalAmount:     total(99.99),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			_, err := f.direct.Complete(context.Background(), "u1", tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Equal(t, 3, f.stock(t, "tee"))
			assert.Zero(t, f.orderCount(t, "u1"))
		})
	}
}

func TestDirect_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := setup(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.direct.Complete(context.Background(), "u1", &CompleteRequest{
				ShippingAddress: f.address,
				Items:           []domain.OrderItem{{ProductID: "tee", Quantity: 2, Price: 50}},
			})
		}()
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, f.stock(t, "tee"))
	assert.Equal(t, int64(1), f.orderCount(t, "u1"))
}

func TestWorkflowsShareInterface(t *testing.T) {
	f := setup(t)
	for _, w := range []Workflow{f.direct, f.flow} {
		assert.NotEmpty(t, w.Mode())
	}
}
