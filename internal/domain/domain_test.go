package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func assertTotals(t *testing.T, c *Cart) {
	t.Helper()
	qty := 0
	var amount float64
	for _, it := range c.Items {
		qty += it.Quantity
		amount += it.Price * float64(it.Quantity)
	}
	assert.Equal(t, qty, c.TotalItems)
	assert.InDelta(t, amount, c.TotalAmount, 0.001)
}

func TestCart_TotalsFollowEveryMutation(t *testing.T) {
	c := NewCart("u1")
	a := c.AddLine("p1", "", 2, 50)
	assertTotals(t, c)

	b := c.AddLine("p2", "v1", 3, 19.99)
	assertTotals(t, c)
	assert.InDelta(t, 159.97, c.TotalAmount, 0.001)

	c.FindItem(a.ID).Quantity = 5
	c.Recalculate()
	assertTotals(t, c)

	c.RemoveItem(b.ID)
	assertTotals(t, c)
	assert.Len(t, c.Items, 1)

	c.Clear()
	assertTotals(t, c)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0.0, c.TotalAmount)
}

func TestCart_RemoveMissingItemLeavesCartUnchanged(t *testing.T) {
	c := NewCart("u1")
	c.AddLine("p1", "", 1, 10)
	before := c.TotalAmount

	c.RemoveItem("does-not-exist")

	assert.Len(t, c.Items, 1)
	assert.Equal(t, before, c.TotalAmount)
}

func TestCart_FindLineMatchesProductAndVariant(t *testing.T) {
	c := NewCart("u1")
	c.AddLine("p1", "", 1, 10)
	c.AddLine("p1", "v1", 1, 12)

	assert.Equal(t, "", c.FindLine("p1", "").VariantID)
	assert.Equal(t, "v1", c.FindLine("p1", "v1").VariantID)
	assert.Nil(t, c.FindLine("p1", "v2"))
	assert.Nil(t, c.FindLine("p2", ""))
}

func TestProduct_UnitPrice(t *testing.T) {
	p := &Product{BasePrice: 100}
	assert.Equal(t, 100.0, p.UnitPrice(nil))

	p.DiscountPrice = ptr(80)
	assert.Equal(t, 80.0, p.UnitPrice(nil))

	assert.Equal(t, 80.0, p.UnitPrice(&Variant{}))
	assert.Equal(t, 95.0, p.UnitPrice(&Variant{Price: ptr(95)}))
}

func TestProduct_AvailableStock(t *testing.T) {
	p := &Product{Stock: 7}
	assert.Equal(t, 7, p.AvailableStock(nil))
	assert.Equal(t, 2, p.AvailableStock(&Variant{Stock: 2}))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Classic Linen Shirt":     "classic-linen-shirt",
		"  Denim -- Jacket!! ":    "denim-jacket",
		"Kurta (Cotton) 2024":     "kurta-cotton-2024",
		"ALL   CAPS":              "all-caps",
		"Tee - Black/White":       "tee-blackwhite",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(10000), ToMinorUnits(2*50))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
	assert.Equal(t, int64(1), ToMinorUnits(0.005))
	assert.Equal(t, 19.99, FromMinorUnits(1999))
}

func TestFulfillmentTransitions(t *testing.T) {
	assert.True(t, FulfillmentProcessing.CanTransitionTo(FulfillmentShipped))
	assert.True(t, FulfillmentShipped.CanTransitionTo(FulfillmentDelivered))
	assert.True(t, FulfillmentDelivered.CanTransitionTo(FulfillmentReturned))
	assert.False(t, FulfillmentDelivered.CanTransitionTo(FulfillmentProcessing))
	assert.False(t, FulfillmentCancelled.CanTransitionTo(FulfillmentShipped))
	assert.True(t, FulfillmentCancelled.IsTerminal())
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusPaid))
	assert.True(t, PaymentStatusPaid.CanTransitionTo(PaymentStatusRefunded))
	assert.False(t, PaymentStatusRefunded.CanTransitionTo(PaymentStatusPaid))
	assert.False(t, PaymentStatusPending.CanTransitionTo(PaymentStatusRefunded))
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrProductNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrAlreadyInWishlist, ErrInvalidArgument)

	stock := fmt.Errorf("add item: %w", &InsufficientStockError{Name: "Shirt", Available: 1})
	assert.ErrorIs(t, stock, ErrInsufficientStock)
	var se *InsufficientStockError
	require.True(t, errors.As(stock, &se))
	assert.Equal(t, 1, se.Available)

	rec := &ReconciliationError{CaseID: "c1", Reason: "x", Err: ErrPersistence}
	assert.ErrorIs(t, rec, ErrReconciliationRequired)
	assert.ErrorIs(t, rec, ErrPersistence)
	assert.NotErrorIs(t, rec, ErrGatewayError)

	p := Persistence("insert order", errors.New("boom"))
	assert.ErrorIs(t, p, ErrPersistence)
}

func TestPagination(t *testing.T) {
	p := PageRequest{Page: 2, Limit: 10}.Normalize()
	pg := NewPagination(p, 25)
	assert.Equal(t, 3, pg.TotalPages)
	assert.True(t, pg.HasNext)
	assert.True(t, pg.HasPrev)
	assert.Equal(t, int64(10), p.Skip())

	d := PageRequest{Page: 0, Limit: 1000}.Normalize()
	assert.Equal(t, 1, d.Page)
	assert.Equal(t, MaxPageSize, d.Limit)
}

func TestPaymentIntent_Fresh(t *testing.T) {
	now := time.Now()
	in := &PaymentIntent{CreatedAt: now.Add(-10 * time.Minute)}
	assert.True(t, in.Fresh(now, 15*time.Minute))
	assert.False(t, in.Fresh(now, 5*time.Minute))
}

func TestNewOrderComputesTotal(t *testing.T) {
	o := NewOrder("u1", CheckoutDirect, []OrderItem{{ProductID: "p1", Quantity: 2, Price: 50}, {ProductID: "p2", Quantity: 1, Price: 0.5}}, Address{City: "Pune"})
	assert.Equal(t, 100.5, o.TotalAmount)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, FulfillmentProcessing, o.FulfillmentStatus)
	assert.Equal(t, "INR", o.Currency)
}
