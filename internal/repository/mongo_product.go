package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/flicky/printmarket/pkg/model"
)

type mongoProductRepo struct {
	coll *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepo{coll: db.Collection(productsCollection)}
}

func (r *mongoProductRepo) Create(ctx context.Context, product *model.Product) error {
	now := time.Now().UTC()
	product.ID = uuid.New()
	product.Version = 1
	product.CreatedAt = now
	product.UpdatedAt = now

	doc, err := toProductDoc(product)
	if err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *mongoProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var doc productDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return doc.model(), nil
}

func (r *mongoProductRepo) List(ctx context.Context) ([]model.Product, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoProductRepo) ListFeatured(ctx context.Context) ([]model.Product, error) {
	return r.find(ctx, bson.M{"featured": true})
}

func (r *mongoProductRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	return r.find(ctx, bson.M{"seller": sellerID.String()})
}

func (r *mongoProductRepo) find(ctx context.Context, filter bson.M) ([]model.Product, error) {
	cur, err := r.coll.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	products := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, *d.model())
	}
	return products, nil
}

func (r *mongoProductRepo) Update(ctx context.Context, product *model.Product) error {
	next := *product
	next.Version++
	next.UpdatedAt = time.Now().UTC()

	doc, err := toProductDoc(&next)
	if err != nil {
		return err
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": product.ID.String(), "version": product.Version}, doc)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	*product = next
	return nil
}

func (r *mongoProductRepo) IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": productID.String()},
		bson.M{
			"$inc": bson.M{"quantity": quantity, "version": 1},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}
