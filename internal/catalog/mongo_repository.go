package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/store/mongostore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	products *mongo.Collection
	variants *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		products: db.Collection(mongostore.ProductsCollection),
		variants: db.Collection(mongostore.VariantsCollection),
	}
}

func (r *mongoRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "stock", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}

	_, err = r.variants.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create variant indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find product", err)
	}
	return &p, nil
}

func (r *mongoRepository) FindVariant(ctx context.Context, id string) (*domain.Variant, error) {
	var v domain.Variant
	err := r.variants.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, domain.Persistence("find variant", err)
	}
	return &v, nil
}

func (r *mongoRepository) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	cur, err := r.variants.Find(ctx, bson.M{"product_id": productID}, options.Find().SetSort(bson.D{{Key: "sku", Value: 1}}))
	if err != nil {
		return nil, domain.Persistence("list variants", err)
	}
	variants := []domain.Variant{}
	if err := cur.All(ctx, &variants); err != nil {
		return nil, domain.Persistence("decode variants", err)
	}
	return variants, nil
}

func (r *mongoRepository) DecrementProductStock(ctx context.Context, id string, n int) error {
	return decrement(ctx, r.products, id, n, domain.ErrProductNotFound, func(doc stockDoc) *domain.InsufficientStockError {
		return &domain.InsufficientStockError{ProductID: id, Name: doc.Name, Available: doc.Stock}
	})
}

func (r *mongoRepository) DecrementVariantStock(ctx context.Context, id string, n int) error {
	return decrement(ctx, r.variants, id, n, domain.ErrVariantNotFound, func(doc stockDoc) *domain.InsufficientStockError {
		return &domain.InsufficientStockError{ProductID: doc.ProductID, VariantID: id, Name: doc.SKU, Available: doc.Stock}
	})
}

type stockDoc struct {
	Stock     int    `bson:"stock"`
	Name      string `bson:"name"`
	SKU       string `bson:"sku"`
	ProductID string `bson:"product_id"`
}

// decrement is a single conditional update; the follow-up read only runs on a miss to explain it.
func decrement(ctx context.Context, coll *mongo.Collection, id string, n int, notFound error,
	insufficient func(stockDoc) *domain.InsufficientStockError) error {
	if n <= 0 {
		return fmt.Errorf("%w: decrement must be positive", domain.ErrInvalidArgument)
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": n}},
		bson.M{"$inc": bson.M{"stock": -n}},
	)
	if err != nil {
		return domain.Persistence("decrement stock", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	var doc stockDoc
	err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	if err != nil {
		return domain.Persistence("read stock", err)
	}
	return insufficient(doc)
}

func (r *mongoRepository) ListProducts(ctx context.Context, filter domain.ProductFilter, page domain.PageRequest) ([]domain.Product, int64, error) {
	f := productQuery(filter)

	total, err := r.products.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, domain.Persistence("count products", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cur, err := r.products.Find(ctx, f, opts)
	if err != nil {
		return nil, 0, domain.Persistence("list products", err)
	}

	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, 0, domain.Persistence("decode products", err)
	}
	return products, total, nil
}

func productQuery(filter domain.ProductFilter) bson.M {
	f := bson.M{}
	if filter.Category != "" {
		f["category"] = filter.Category
	}
	if filter.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		f["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"brand": rx},
			bson.M{"description": rx},
		}
	}
	if filter.LowStock {
		f["stock"] = bson.M{"$lte": domain.LowStockThreshold}
	}
	return f
}

func (r *mongoRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.products.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateSlug
	}
	if err != nil {
		return domain.Persistence("insert product", err)
	}
	return nil
}

func (r *mongoRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	res, err := r.products.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateSlug
	}
	if err != nil {
		return domain.Persistence("update product", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.Persistence("delete product", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	if _, err := r.variants.DeleteMany(ctx, bson.M{"product_id": id}); err != nil {
		return domain.Persistence("delete variants", err)
	}
	return nil
}

func (r *mongoRepository) CreateVariant(ctx context.Context, v *domain.Variant) error {
	_, err := r.variants.InsertOne(ctx, v)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateSKU
	}
	if err != nil {
		return domain.Persistence("insert variant", err)
	}
	return nil
}
