package wishlist

import (
	"context"
	"errors"
	"fmt"

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
	return &mongoRepository{collection: db.Collection(mongostore.WishlistsCollection)}
}

func (r *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create wishlist indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) GetWishlist(ctx context.Context, userID string) (*domain.Wishlist, error) {
	var w domain.Wishlist
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrWishlistNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find wishlist", err)
	}
	if w.Products == nil {
		w.Products = []string{}
	}
	return &w, nil
}

func (r *mongoRepository) SaveWishlist(ctx context.Context, w *domain.Wishlist) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	update := bson.M{
		"$set": bson.M{
			"products":   w.Products,
			"updated_at": w.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        w.ID,
			"created_at": w.CreatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": w.UserID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return domain.Persistence("save wishlist", err)
	}
	return nil
}
