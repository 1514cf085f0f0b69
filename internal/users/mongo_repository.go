package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/mongostore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(mongostore.UsersCollection)}
}

func (r *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindUser(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find user", err)
	}
	return &u, nil
}

func (r *mongoRepository) ListUsers(ctx context.Context, filter domain.UserFilter, page domain.PageRequest) ([]domain.User, int64, error) {
	f := bson.M{}
	if filter.Role != "" {
		f["role"] = filter.Role
	}
	if filter.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		f["$or"] = bson.A{
			bson.M{"first_name": rx},
			bson.M{"last_name": rx},
			bson.M{"email": rx},
		}
	}

	total, err := r.collection.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, domain.Persistence("count users", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cur, err := r.collection.Find(ctx, f, opts)
	if err != nil {
		return nil, 0, domain.Persistence("list users", err)
	}

	users := []domain.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, domain.Persistence("decode users", err)
	}
	return users, total, nil
}

func (r *mongoRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return domain.Persistence("update role", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *mongoRepository) UpsertUser(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(u.Email)
	update := bson.M{
		"$set": bson.M{
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"role":       u.Role,
			"updated_at": u.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        u.ID,
			"created_at": u.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved domain.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"email": u.Email}, update, opts).Decode(&saved)
	if err != nil {
		return domain.Persistence("upsert user", err)
	}
	u.ID = saved.ID
	u.CreatedAt = saved.CreatedAt
	return nil
}
