package catalog

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
)

// Reader is what the cart and checkout need to price and stock-check a line.
type Reader interface {
	FindProduct(ctx context.Context, id string) (*domain.Product, error)
	FindVariant(ctx context.Context, id string) (*domain.Variant, error)
}

// StockKeeper performs conditional decrements: stock is reduced by n only if stock >= n,
// otherwise an *domain.InsufficientStockError reports the remaining amount.
type StockKeeper interface {
	DecrementProductStock(ctx context.Context, id string, n int) error
	DecrementVariantStock(ctx context.Context, id string, n int) error
}

type Repository interface {
	Reader
	StockKeeper
	ListVariants(ctx context.Context, productID string) ([]domain.Variant, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]domain.Product, int64, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	CreateVariant(ctx context.Context, v *domain.Variant) error
}
