// Package seed loads a sample catalog and an admin account for local runs.
package seed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/users"
	"github.com/google/uuid"
)

var sampleProducts = []catalog.ProductInput{
	{Name: "Elegant Evening Dress", Category: "women", BasePrice: 299, Stock: 15,
		Description: "A stunning evening dress perfect for special occasions. Made with premium silk fabric and featuring intricate beadwork details."},
	{Name: "Classic Tailored Suit", Category: "men", BasePrice: 599, Stock: 8,
		Description: "A sophisticated men's suit crafted from fine wool blend. Perfect for business meetings and formal events."},
	{Name: "Luxury Leather Handbag", Category: "accessories", BasePrice: 199, Stock: 12,
		Description: "Handcrafted leather handbag with gold hardware. Spacious interior with multiple compartments for organization."},
	{Name: "Designer Blouse", Category: "women", BasePrice: 89, Stock: 20,
		Description: "Elegant blouse with unique pattern and comfortable fit. Made from high-quality cotton blend."},
	{Name: "Premium Denim Jacket", Category: "men", BasePrice: 149, Stock: 10,
		Description: "Classic denim jacket with modern fit. Made from premium denim with attention to detail."},
	{Name: "Silk Scarf", Category: "accessories", BasePrice: 79, Stock: 25,
		Description: "Luxurious silk scarf with beautiful print. Perfect accessory for any outfit."},
	{Name: "Cocktail Dress", Category: "women", BasePrice: 249, Stock: 6,
		Description: "Chic cocktail dress perfect for evening events. Features elegant silhouette and premium fabric."},
	{Name: "Business Shirt", Category: "men", BasePrice: 69, Stock: 18,
		Description: "Professional business shirt with crisp collar and perfect fit. Made from premium cotton."},
	{Name: "Statement Necklace", Category: "accessories", BasePrice: 129, Stock: 14,
		Description: "Bold statement necklace with unique design. Perfect for adding glamour to any outfit."},
}

// sized products get one variant per size, stock split evenly
var sizes = []string{"S", "M", "L"}

type Result struct {
	Products int
	Skipped  int
	AdminID  string
}

// Run is idempotent: products whose slug exists are skipped and the admin is upserted by email.
func Run(ctx context.Context, cat *catalog.Service, usersRepo users.Repository, adminEmail string) (*Result, error) {
	res := &Result{}
	for _, in := range sampleProducts {
		p, err := cat.CreateProduct(ctx, in)
		if errors.Is(err, domain.ErrDuplicateSlug) {
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Products++

		if in.Category == "accessories" {
			continue
		}
		for _, size := range sizes {
			_, err := cat.AddVariant(ctx, p.ID, catalog.VariantInput{
				SKU:   p.Slug + "-" + strings.ToLower(size),
				Size:  size,
				Stock: in.Stock / len(sizes),
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if adminEmail != "" {
		now := time.Now().UTC()
		admin := &domain.User{
			ID:        uuid.NewString(),
			FirstName: "Store",
			LastName:  "Admin",
			Email:     strings.ToLower(adminEmail),
			Role:      domain.RoleAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := usersRepo.UpsertUser(ctx, admin); err != nil {
			return nil, err
		}
		res.AdminID = admin.ID
	}

	slog.InfoContext(ctx, "seed complete", "products", res.Products, "skipped", res.Skipped, "admin_id", res.AdminID)
	return res, nil
}
