package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/mongostore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(mongostore.OutboxCollection)}
}

func (r *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "processed_at", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox indexes: %w", err)
	}
	return nil
}

// AddEvent joins the caller's session when ctx carries one.
func (r *mongoRepository) AddEvent(ctx context.Context, event *domain.OutboxEvent) error {
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return domain.Persistence("insert outbox event", err)
	}
	return nil
}

func (r *mongoRepository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := r.collection.Find(ctx, bson.M{"processed_at": bson.M{"$exists": false}}, opts)
	if err != nil {
		return nil, domain.Persistence("query outbox", err)
	}

	events := []*domain.OutboxEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, domain.Persistence("decode outbox", err)
	}
	return events, nil
}

func (r *mongoRepository) MarkEventAsProcessed(ctx context.Context, id string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"processed_at": time.Now().UTC()}},
	)
	if err != nil {
		return domain.Persistence("mark outbox event", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event %w", domain.ErrNotFound)
	}
	return nil
}
