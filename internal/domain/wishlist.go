package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Wishlist struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Products  []string  `bson:"products" json:"products"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

func NewWishlist(userID string) *Wishlist {
	now := time.Now().UTC()
	return &Wishlist{
		ID:        uuid.NewString(),
		UserID:    userID,
		Products:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (w *Wishlist) Contains(productID string) bool {
	return slices.Contains(w.Products, productID)
}

// Add reports false if the product is already present.
func (w *Wishlist) Add(productID string) bool {
	if w.Contains(productID) {
		return false
	}
	w.Products = append(w.Products, productID)
	w.UpdatedAt = time.Now().UTC()
	return true
}

func (w *Wishlist) Remove(productID string) {
	w.Products = slices.DeleteFunc(w.Products, func(id string) bool { return id == productID })
	w.UpdatedAt = time.Now().UTC()
}
