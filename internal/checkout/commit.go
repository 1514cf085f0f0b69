package checkout

import (
	"context"
	"fmt"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/outbox"
)

// Stores bundles the repositories a checkout writes to.
type Stores struct {
	Tx      Transactor
	Catalog catalog.Repository
	Carts   cart.Repository
	Orders  orders.Repository
	Outbox  outbox.Repository
}

type committer struct {
	tx     Transactor
	lookup catalog.Reader
	stock  catalog.StockKeeper
	carts  cart.Repository
	orders orders.Repository
	events outbox.Repository
}

func newCommitter(s Stores) *committer {
	return &committer{tx: s.Tx, lookup: s.Catalog, stock: s.Catalog, carts: s.Carts, orders: s.Orders, events: s.Outbox}
}

// commit persists the order before touching stock. Any failure aborts every write.
// Every line must name an existing product, and its variant, if any, must belong to it.
func (c *committer) commit(ctx context.Context, order *domain.Order, clearCart bool) error {
	return c.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range order.Items {
			it := &order.Items[i]
			res, err := catalog.Resolve(ctx, c.lookup, it.ProductID, it.VariantID)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			if it.Name == "" {
				it.Name = res.Product.Name
			}
			if it.SKU == "" && res.Variant != nil {
				it.SKU = res.Variant.SKU
			}
		}

		if err := c.orders.Create(ctx, order); err != nil {
			return err
		}

		for _, it := range order.Items {
			var err error
			if it.VariantID != "" {
				err = c.stock.DecrementVariantStock(ctx, it.VariantID, it.Quantity)
			} else {
				err = c.stock.DecrementProductStock(ctx, it.ProductID, it.Quantity)
			}
			if err != nil {
				return err
			}
		}

		if clearCart {
			if err := c.carts.ClearCart(ctx, order.UserID); err != nil {
				return err
			}
		}

		ev, err := domain.NewOrderCreatedEvent(order)
		if err != nil {
			return fmt.Errorf("failed to build order event: %w", err)
		}
		return c.events.AddEvent(ctx, ev)
	})
}
