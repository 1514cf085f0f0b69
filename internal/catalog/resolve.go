package catalog

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

// Resolution is the live catalog view of one purchasable line.
type Resolution struct {
	Product   *domain.Product
	Variant   *domain.Variant
	Available int
	UnitPrice float64
}

// Resolve loads product and optional variant. A variant that is inactive or belongs to a
// different product is treated as missing.
func Resolve(ctx context.Context, r Reader, productID, variantID string) (*Resolution, error) {
	p, err := r.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var v *domain.Variant
	if variantID != "" {
		v, err = r.FindVariant(ctx, variantID)
		if err != nil {
			return nil, err
		}
		if v.ProductID != p.ID || !v.Active {
			return nil, domain.ErrVariantNotFound
		}
	}

	return &Resolution{
		Product:   p,
		Variant:   v,
		Available: p.AvailableStock(v),
		UnitPrice: p.UnitPrice(v),
	}, nil
}

// Check fails with *domain.InsufficientStockError when quantity exceeds what is available.
func (r *Resolution) Check(quantity int) error {
	if quantity > r.Available {
		e := &domain.InsufficientStockError{
			ProductID: r.Product.ID,
			Name:      r.Product.Name,
			Available: r.Available,
		}
		if r.Variant != nil {
			e.VariantID = r.Variant.ID
		}
		return e
	}
	return nil
}

func (r *Resolution) Summary() (*domain.ProductSummary, *domain.VariantSummary) {
	ps := &domain.ProductSummary{
		Name:     r.Product.Name,
		Slug:     r.Product.Slug,
		Price:    r.UnitPrice,
		ImageURL: r.Product.ImageURL,
	}
	if r.Variant == nil {
		return ps, nil
	}
	return ps, &domain.VariantSummary{SKU: r.Variant.SKU, Size: r.Variant.Size, Color: r.Variant.Color}
}
