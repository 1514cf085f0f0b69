package orders

import (
	"context"
	"errors"
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
	return &mongoRepository{collection: db.Collection(mongostore.OrdersCollection)}
}

func (r *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{
			// direct orders carry no payment record and stay out of the index
			Keys: bson.D{{Key: "payment.gateway_order_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"payment.gateway_order_id": bson.M{"$type": "string"}}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, order *domain.Order) error {
	_, err := r.collection.InsertOne(ctx, order)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrPaymentAlreadyProcessed
	}
	if err != nil {
		return domain.Persistence("insert order", err)
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find order", err)
	}
	return &o, nil
}

func (r *mongoRepository) ListByUser(ctx context.Context, userID string, page domain.PageRequest) ([]domain.Order, int64, error) {
	return r.find(ctx, bson.M{"user_id": userID}, page)
}

func (r *mongoRepository) List(ctx context.Context, filter domain.OrderFilter, page domain.PageRequest) ([]domain.Order, int64, error) {
	f := bson.M{}
	if filter.PaymentStatus != "" {
		f["payment_status"] = filter.PaymentStatus
	}
	if filter.FulfillmentStatus != "" {
		f["fulfillment_status"] = filter.FulfillmentStatus
	}
	created := bson.M{}
	if !filter.From.IsZero() {
		created["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		created["$lte"] = filter.To
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return r.find(ctx, f, page)
}

func (r *mongoRepository) find(ctx context.Context, f bson.M, page domain.PageRequest) ([]domain.Order, int64, error) {
	total, err := r.collection.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, domain.Persistence("count orders", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cur, err := r.collection.Find(ctx, f, opts)
	if err != nil {
		return nil, 0, domain.Persistence("list orders", err)
	}

	orders := []domain.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, 0, domain.Persistence("decode orders", err)
	}
	return orders, total, nil
}

func (r *mongoRepository) UpdateFulfillment(ctx context.Context, id string, from, to domain.FulfillmentStatus, tracking *domain.Tracking) error {
	set := bson.M{
		"fulfillment_status": to,
		"updated_at":         time.Now().UTC(),
	}
	if tracking != nil {
		set["tracking"] = tracking
	}
	return r.transition(ctx, bson.M{"_id": id, "fulfillment_status": from}, set)
}

func (r *mongoRepository) UpdatePaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) error {
	o, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	set := bson.M{
		"payment_status": to,
		"updated_at":     time.Now().UTC(),
	}
	if o.Payment != nil {
		set["payment.status"] = to
	}
	return r.transition(ctx, bson.M{"_id": id, "payment_status": from}, set)
}

// transition applies set only while the guard still matches.
func (r *mongoRepository) transition(ctx context.Context, guard bson.M, set bson.M) error {
	res, err := r.collection.UpdateOne(ctx, guard, bson.M{"$set": set})
	if err != nil {
		return domain.Persistence("update order", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": guard["_id"]})
	if err != nil {
		return domain.Persistence("read order", err)
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return domain.ErrIllegalTransition
}
