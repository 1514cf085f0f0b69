package domain

import (
	"regexp"
	"strings"
	"time"
)

// LowStockThreshold is the stock level at or below which admin listings flag a product.
const LowStockThreshold = 10

type Product struct {
	ID               string    `bson:"_id" json:"id"`
	Name             string    `bson:"name" json:"name"`
	Slug             string    `bson:"slug" json:"slug"`
	Description      string    `bson:"description" json:"description"`
	Brand            string    `bson:"brand" json:"brand"`
	Category         string    `bson:"category" json:"category"`
	Material         string    `bson:"material,omitempty" json:"material,omitempty"`
	Fit              string    `bson:"fit,omitempty" json:"fit,omitempty"`
	CareInstructions string    `bson:"care_instructions,omitempty" json:"care_instructions,omitempty"`
	ImageURL         string    `bson:"image_url,omitempty" json:"image_url,omitempty"`
	BasePrice        float64   `bson:"base_price" json:"base_price"`
	DiscountPrice    *float64  `bson:"discount_price,omitempty" json:"discount_price,omitempty"`
	Currency         string    `bson:"currency" json:"currency"`
	Stock            int       `bson:"stock" json:"stock"` // advisory when HasVariants
	HasVariants      bool      `bson:"has_variants" json:"has_variants"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

type Variant struct {
	ID        string   `bson:"_id" json:"id"`
	ProductID string   `bson:"product_id" json:"product_id"`
	SKU       string   `bson:"sku" json:"sku"`
	Size      string   `bson:"size,omitempty" json:"size,omitempty"`
	Color     string   `bson:"color,omitempty" json:"color,omitempty"`
	Price     *float64 `bson:"price,omitempty" json:"price,omitempty"`
	Stock     int      `bson:"stock" json:"stock"`
	Active    bool     `bson:"active" json:"active"`
}

// UnitPrice resolves the price a buyer pays for the product, or for the given variant of it.
// Variant price wins, then the discount price, then the base price.
func (p *Product) UnitPrice(v *Variant) float64 {
	if v != nil && v.Price != nil {
		return *v.Price
	}
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 {
		return *p.DiscountPrice
	}
	return p.BasePrice
}

// AvailableStock returns the stock count that governs purchases of the product or the variant.
func (p *Product) AvailableStock(v *Variant) int {
	if v != nil {
		return v.Stock
	}
	return p.Stock
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify turns a product name into its URL slug.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type ProductSummary struct {
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
}

type VariantSummary struct {
	SKU   string `json:"sku"`
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}
