package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

type ProductInput struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Brand            string   `json:"brand"`
	Category         string   `json:"category"`
	Material         string   `json:"material"`
	Fit              string   `json:"fit"`
	CareInstructions string   `json:"care_instructions"`
	ImageURL         string   `json:"image_url"`
	BasePrice        float64  `json:"base_price"`
	DiscountPrice    *float64 `json:"discount_price"`
	Currency         string   `json:"currency"`
	Stock            int      `json:"stock"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	if in.BasePrice <= 0 {
		return fmt.Errorf("%w: base_price must be positive", domain.ErrInvalidArgument)
	}
	if in.DiscountPrice != nil && (*in.DiscountPrice < 0 || *in.DiscountPrice > in.BasePrice) {
		return fmt.Errorf("%w: discount_price must be between 0 and base_price", domain.ErrInvalidArgument)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidArgument)
	}
	return nil
}

type VariantInput struct {
	SKU   string   `json:"sku"`
	Size  string   `json:"size"`
	Color string   `json:"color"`
	Price *float64 `json:"price"`
	Stock int      `json:"stock"`
}

type ProductDetails struct {
	*domain.Product
	Variants []domain.Variant `json:"variants"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetProduct(ctx context.Context, id string) (*ProductDetails, error) {
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := s.repo.ListVariants(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductDetails{Product: p, Variants: variants}, nil
}

func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) (*domain.Page[domain.Product], error) {
	page = page.Normalize()
	products, total, err := s.repo.ListProducts(ctx, filter, page)
	if err != nil {
		slog.ErrorContext(ctx, "repo list products error", "error", err)
		return nil, err
	}
	return domain.NewPage(products, page, total), nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	apply(p, in, now)

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "product created", "product_id", p.ID, "slug", p.Slug)
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(p, in, time.Now().UTC())
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

// AddVariant attaches a variant; from then on the product's stock lives on its variants.
func (s *Service) AddVariant(ctx context.Context, productID string, in VariantInput) (*domain.Variant, error) {
	if strings.TrimSpace(in.SKU) == "" {
		return nil, fmt.Errorf("%w: sku is required", domain.ErrInvalidArgument)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", domain.ErrInvalidArgument)
	}
	if in.Price != nil && *in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidArgument)
	}

	p, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	v := &domain.Variant{
		ID:        uuid.NewString(),
		ProductID: p.ID,
		SKU:       strings.ToUpper(strings.TrimSpace(in.SKU)),
		Size:      in.Size,
		Color:     in.Color,
		Price:     in.Price,
		Stock:     in.Stock,
		Active:    true,
	}
	if err := s.repo.CreateVariant(ctx, v); err != nil {
		return nil, err
	}

	if !p.HasVariants {
		p.HasVariants = true
		p.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateProduct(ctx, p); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func apply(p *domain.Product, in ProductInput, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Slug = domain.Slugify(in.Name)
	p.Description = in.Description
	p.Brand = in.Brand
	p.Category = in.Category
	p.Material = in.Material
	p.Fit = in.Fit
	p.CareInstructions = in.CareInstructions
	p.ImageURL = in.ImageURL
	p.BasePrice = in.BasePrice
	p.DiscountPrice = in.DiscountPrice
	p.Currency = in.Currency
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}
	p.Stock = in.Stock
	p.UpdatedAt = now
}
