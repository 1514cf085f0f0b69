package cart

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type Repository interface {
	// GetCart returns domain.ErrCartNotFound when the user never had a cart.
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	// SaveCart upserts the whole cart keyed by its user.
	SaveCart(ctx context.Context, cart *domain.Cart) error
	// ClearCart empties items and zeroes totals, keeping the cart record.
	ClearCart(ctx context.Context, userID string) error
}
