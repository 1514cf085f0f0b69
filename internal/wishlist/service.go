package wishlist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/lock"
)

type Service struct {
	repo    Repository
	catalog catalog.Reader
	locker  lock.Locker
}

func NewService(repo Repository, cat catalog.Reader, locker lock.Locker) *Service {
	return &Service{repo: repo, catalog: cat, locker: locker}
}

// GetWishlist returns an empty wishlist for a user who never added anything.
func (s *Service) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	w, err := s.repo.GetWishlist(ctx, userID)
	if errors.Is(err, domain.ErrWishlistNotFound) {
		empty := domain.NewWishlist(userID)
		empty.ID = ""
		return empty, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "repo get wishlist error", "user_id", userID, "error", err)
		return nil, err
	}
	return w, nil
}

func (s *Service) Add(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	if _, err := s.catalog.FindProduct(ctx, productID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "wishlist:"+userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := s.repo.GetWishlist(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrWishlistNotFound):
		w = domain.NewWishlist(userID)
	case err != nil:
		return nil, err
	}

	if !w.Add(productID) {
		return nil, domain.ErrAlreadyInWishlist
	}
	if err := s.repo.SaveWishlist(ctx, w); err != nil {
		slog.ErrorContext(ctx, "repo save wishlist error", "user_id", userID, "error", err)
		return nil, err
	}
	return w, nil
}

// Remove fails only when the user has no wishlist; an absent product is ignored.
func (s *Service) Remove(ctx context.Context, userID, productID string) (*domain.Wishlist, error) {
	unlock, err := s.locker.Lock(ctx, "wishlist:"+userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	w, err := s.repo.GetWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	w.Remove(productID)
	if err := s.repo.SaveWishlist(ctx, w); err != nil {
		slog.ErrorContext(ctx, "repo save wishlist error", "user_id", userID, "error", err)
		return nil, err
	}
	return w, nil
}

func (s *Service) Contains(ctx context.Context, userID, productID string) (bool, error) {
	w, err := s.GetWishlist(ctx, userID)
	if err != nil {
		return false, err
	}
	return w.Contains(productID), nil
}
