package cart

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/lock"
	"golang.org/x/sync/singleflight"
)

type AddItemInput struct {
	ProductID string
	VariantID string
	Quantity  int
}

type Service struct {
	repo    Repository
	catalog catalog.Reader
	cache   Cache
	locker  lock.Locker
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo Repository, cat catalog.Reader, cache Cache, locker lock.Locker) *Service {
	return &Service{
		repo:    repo,
		catalog: cat,
		cache:   cache,
		locker:  locker,
	}
}

// GetCart never fails with not found: a user without a cart gets an empty one.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			slog.WarnContext(ctx, "cache get error", "user_id", userID, "error", err) // continue with repo
		}

		c, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.EmptyCart(userID), nil
		}
		if err != nil {
			return nil, err
		}

		go func(c *domain.Cart) {
			if errSet := s.cache.Set(context.Background(), userID, c); errSet != nil {
				slog.Warn("cache set error", "user_id", userID, "error", errSet)
			}
		}(c)
		return c, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "repo get cart error", "user_id", userID, "error", err)
		return nil, err
	}

	return s.withDisplay(ctx, v.(*domain.Cart)), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, in AddItemInput) (*domain.Cart, error) {
	if in.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	return s.mutate(ctx, userID, true, func(c *domain.Cart) error {
		res, err := catalog.Resolve(ctx, s.catalog, in.ProductID, in.VariantID)
		if err != nil {
			return err
		}

		line := c.FindLine(in.ProductID, in.VariantID)
		want := in.Quantity
		if line != nil {
			want += line.Quantity
		}
		if err := res.Check(want); err != nil {
			return err
		}

		if line != nil {
			line.Quantity = want
			return nil
		}
		c.AddLine(in.ProductID, in.VariantID, in.Quantity, res.UnitPrice)
		return nil
	})
}

func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	return s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		line := c.FindItem(itemID)
		if line == nil {
			return domain.ErrCartItemNotFound
		}

		res, err := catalog.Resolve(ctx, s.catalog, line.ProductID, line.VariantID)
		if err != nil {
			return err
		}
		if err := res.Check(quantity); err != nil {
			return err
		}
		line.Quantity = quantity
		return nil
	})
}

// RemoveItem tolerates an item id that is not in the cart; only a missing cart is an error.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, false, func(c *domain.Cart) error {
		c.RemoveItem(itemID)
		return nil
	})
}

func (s *Service) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	unlock, err := s.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.repo.ClearCart(ctx, userID); err != nil {
		if !errors.Is(err, domain.ErrCartNotFound) {
			slog.ErrorContext(ctx, "repo clear cart error", "user_id", userID, "error", err)
		}
		return nil, err
	}

	s.InvalidateCache(userID)
	return domain.EmptyCart(userID), nil
}

// mutate loads the cart under the user lock, applies fn, recomputes totals and persists.
// When fn fails nothing is written.
func (s *Service) mutate(ctx context.Context, userID string, create bool, fn func(c *domain.Cart) error) (*domain.Cart, error) {
	unlock, err := s.locker.Lock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	c, err := s.repo.GetCart(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrCartNotFound) && create:
		c = domain.NewCart(userID)
	case err != nil:
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}
	c.Recalculate()

	if err := s.repo.SaveCart(ctx, c); err != nil {
		slog.ErrorContext(ctx, "repo save cart error", "user_id", userID, "error", err)
		return nil, err
	}

	s.InvalidateCache(userID)
	return s.withDisplay(ctx, c), nil
}

func (s *Service) InvalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		slog.Warn("cache invalidate error", "user_id", userID, "error", err)
	}
}

// withDisplay returns a copy of c with product and variant display fields filled from the catalog.
func (s *Service) withDisplay(ctx context.Context, c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = slices.Clone(c.Items)
	if out.Items == nil {
		out.Items = []domain.CartItem{}
	}

	for i := range out.Items {
		it := &out.Items[i]
		res, err := catalog.Resolve(ctx, s.catalog, it.ProductID, it.VariantID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				slog.WarnContext(ctx, "resolve cart item error", "item_id", it.ID, "error", err)
			}
			continue
		}
		it.Product, it.Variant = res.Summary()
	}
	return &out
}
