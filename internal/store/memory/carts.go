package memory

import (
	"context"
	"slices"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

func (s *Store) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	defer s.lock(ctx)()
	c, ok := s.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	c.Items = slices.Clone(c.Items)
	return &c, nil
}

func (s *Store) SaveCart(ctx context.Context, cart *domain.Cart) error {
	defer s.lock(ctx)()
	c := *cart
	if existing, ok := s.carts[c.UserID]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	}
	c.Items = slices.Clone(cart.Items)
	for i := range c.Items {
		c.Items[i].Product = nil
		c.Items[i].Variant = nil
	}
	s.carts[c.UserID] = c
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	defer s.lock(ctx)()
	c, ok := s.carts[userID]
	if !ok {
		return domain.ErrCartNotFound
	}
	c.Items = []domain.CartItem{}
	c.TotalAmount = 0
	c.TotalItems = 0
	c.UpdatedAt = time.Now().UTC()
	s.carts[userID] = c
	return nil
}

func (s *Store) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	defer s.lock(ctx)()
	w, ok := s.wishlists[userID]
	if !ok {
		return nil, domain.ErrWishlistNotFound
	}
	w.Products = slices.Clone(w.Products)
	return &w, nil
}

func (s *Store) SaveWishlist(ctx context.Context, wl *domain.Wishlist) error {
	defer s.lock(ctx)()
	w := *wl
	if existing, ok := s.wishlists[w.UserID]; ok {
		w.ID = existing.ID
		w.CreatedAt = existing.CreatedAt
	}
	w.Products = slices.Clone(wl.Products)
	s.wishlists[w.UserID] = w
	return nil
}
