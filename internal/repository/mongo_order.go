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

type mongoOrderRepo struct {
	client   *mongo.Client
	orders   *mongo.Collection
	products *mongo.Collection
}

func NewMongoOrderRepository(client *mongo.Client, db *mongo.Database) OrderRepository {
	return &mongoOrderRepo{
		client:   client,
		orders:   db.Collection(ordersCollection),
		products: db.Collection(productsCollection),
	}
}

func (r *mongoOrderRepo) PlaceOrder(ctx context.Context, order *model.Order) error {
	now := time.Now().UTC()
	order.ID = uuid.New()
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now

	doc, err := toOrderDoc(order)
	if err != nil {
		return err
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for _, item := range order.Items {
			res, err := r.products.UpdateOne(sc,
				bson.M{"_id": item.ProductID.String(), "quantity": bson.M{"$gte": item.Quantity}},
				bson.M{
					"$inc": bson.M{"quantity": -item.Quantity, "version": 1},
					"$set": bson.M{"updatedAt": now},
				},
			)
			if err != nil {
				return nil, fmt.Errorf("decrement stock: %w", err)
			}
			if res.MatchedCount == 0 {
				return nil, fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
			}
		}
		if _, err := r.orders.InsertOne(sc, doc); err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}
		return nil, nil
	})
	return err
}

func (r *mongoOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var doc orderDoc
	err := r.orders.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return doc.model(), nil
}

func (r *mongoOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.find(ctx, bson.M{"user": userID.String()})
}

func (r *mongoOrderRepo) ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]model.Order, error) {
	return r.find(ctx, bson.M{"items.seller": sellerID.String()})
}

func (r *mongoOrderRepo) find(ctx context.Context, filter bson.M) ([]model.Order, error) {
	cur, err := r.orders.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, *d.model())
	}
	return orders, nil
}

func (r *mongoOrderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	now := time.Now().UTC()
	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": order.ID.String(), "version": order.Version},
		bson.M{
			"$set": bson.M{"status": string(order.Status), "updatedAt": now},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	order.Version++
	order.UpdatedAt = now
	return nil
}
