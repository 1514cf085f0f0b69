package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/fjod/storefront/internal/domain"
)

func (s *Store) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	defer s.lock(ctx)()
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (s *Store) FindVariant(ctx context.Context, id string) (*domain.Variant, error) {
	defer s.lock(ctx)()
	v, ok := s.variants[id]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	return &v, nil
}

func (s *Store) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	defer s.lock(ctx)()
	out := []domain.Variant{}
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b domain.Variant) int { return cmp.Compare(a.SKU, b.SKU) })
	return out, nil
}

func (s *Store) DecrementProductStock(ctx context.Context, id string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: decrement must be positive", domain.ErrInvalidArgument)
	}
	defer s.lock(ctx)()
	p, ok := s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock < n {
		return &domain.InsufficientStockError{ProductID: id, Name: p.Name, Available: p.Stock}
	}
	p.Stock -= n
	s.products[id] = p
	return nil
}

func (s *Store) DecrementVariantStock(ctx context.Context, id string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: decrement must be positive", domain.ErrInvalidArgument)
	}
	defer s.lock(ctx)()
	v, ok := s.variants[id]
	if !ok {
		return domain.ErrVariantNotFound
	}
	if v.Stock < n {
		return &domain.InsufficientStockError{ProductID: v.ProductID, VariantID: id, Name: v.SKU, Available: v.Stock}
	}
	v.Stock -= n
	s.variants[id] = v
	return nil
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]domain.Product, int64, error) {
	defer s.lock(ctx)()
	search := strings.ToLower(filter.Search)

	matched := []domain.Product{}
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.LowStock && p.Stock > domain.LowStockThreshold {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Brand), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		matched = append(matched, p)
	}
	slices.SortFunc(matched, func(a, b domain.Product) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return paginate(matched, page), int64(len(matched)), nil
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	defer s.lock(ctx)()
	if s.slugTaken(p.Slug, p.ID) {
		return domain.ErrDuplicateSlug
	}
	s.products[p.ID] = *p
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	defer s.lock(ctx)()
	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	if s.slugTaken(p.Slug, p.ID) {
		return domain.ErrDuplicateSlug
	}
	s.products[p.ID] = *p
	return nil
}

func (s *Store) slugTaken(slug, exceptID string) bool {
	for id, other := range s.products {
		if id != exceptID && other.Slug == slug {
			return true
		}
	}
	return false
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	defer s.lock(ctx)()
	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.products, id)
	for vid, v := range s.variants {
		if v.ProductID == id {
			delete(s.variants, vid)
		}
	}
	return nil
}

func (s *Store) CreateVariant(ctx context.Context, v *domain.Variant) error {
	defer s.lock(ctx)()
	for _, other := range s.variants {
		if other.SKU == v.SKU {
			return domain.ErrDuplicateSKU
		}
	}
	s.variants[v.ID] = *v
	return nil
}
