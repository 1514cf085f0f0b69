package wishlist

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

type Repository interface {
	GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error)
	SaveWishlist(ctx context.Context, w *domain.Wishlist) error
}
