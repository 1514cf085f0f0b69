package domain

import (
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	ID          string     `bson:"_id" json:"id"`
	UserID      string     `bson:"user_id" json:"user_id"`
	Items       []CartItem `bson:"items" json:"items"`
	TotalAmount float64    `bson:"total_amount" json:"total_amount"`
	TotalItems  int        `bson:"total_items" json:"total_items"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

type CartItem struct {
	ID        string    `bson:"id" json:"id"`
	ProductID string    `bson:"product_id" json:"product_id"`
	VariantID string    `bson:"variant_id,omitempty" json:"variant_id,omitempty"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	Price     float64   `bson:"price" json:"price"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`

	// resolved on read, never stored
	Product *ProductSummary `bson:"-" json:"product,omitempty"`
	Variant *VariantSummary `bson:"-" json:"variant,omitempty"`
}

// EmptyCart is what a user who never added anything sees.
func EmptyCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewCart(userID string) *Cart {
	c := EmptyCart(userID)
	c.ID = uuid.NewString()
	return c
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindLine returns the line matching product and variant ("" matches no variant).
func (c *Cart) FindLine(productID, variantID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantID == variantID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) FindItem(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) AddLine(productID, variantID string, quantity int, price float64) *CartItem {
	c.Items = append(c.Items, CartItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
		Price:     price,
		AddedAt:   time.Now().UTC(),
	})
	c.Recalculate()
	return &c.Items[len(c.Items)-1]
}

// RemoveItem drops the line with the given id. A missing id leaves the cart unchanged.
func (c *Cart) RemoveItem(itemID string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.Recalculate()
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

// Recalculate derives TotalItems and TotalAmount from the lines.
func (c *Cart) Recalculate() {
	items := 0
	total := Zero()
	for _, it := range c.Items {
		items += it.Quantity
		total = total.Add(LineTotal(it.Price, it.Quantity))
	}
	c.TotalItems = items
	c.TotalAmount = ToFloat(total)
	c.UpdatedAt = time.Now().UTC()
}
