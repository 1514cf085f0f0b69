package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/mongostore"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection(mongostore.CartsCollection),
	}
}

// CreateIndexes keeps one cart per user.
func (r *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find cart", err)
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &c, nil
}

func (r *mongoRepository) SaveCart(ctx context.Context, c *domain.Cart) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}

	update := bson.M{
		"$set": bson.M{
			"items":        items,
			"total_amount": c.TotalAmount,
			"total_items":  c.TotalItems,
			"updated_at":   c.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        c.ID,
			"created_at": c.CreatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": c.UserID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return domain.Persistence("save cart", err)
	}
	return nil
}

func (r *mongoRepository) ClearCart(ctx context.Context, userID string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{
			"items":        bson.A{},
			"total_amount": 0.0,
			"total_items":  0,
			"updated_at":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return domain.Persistence("clear cart", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCartNotFound
	}
	return nil
}
