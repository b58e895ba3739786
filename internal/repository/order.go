package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/printmarket/pkg/model"
)

type pgOrderRepo struct {
	pool *pgxpool.Pool
	docs pgDocs
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool, docs: pgDocs{table: "orders"}}
}

func (r *pgOrderRepo) PlaceOrder(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, item := range order.Items {
		ct, err := tx.Exec(ctx,
			`UPDATE products
			 SET doc = jsonb_set(doc, '{quantity}', to_jsonb((doc->>'quantity')::int - $2)), version = version + 1
			 WHERE id = $1 AND (doc->>'quantity')::int >= $2`,
			item.ProductID, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
		}
	}

	now := time.Now().UTC()
	order.ID = uuid.New()
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now
	if err := r.docs.insert(ctx, tx, order.ID, order.UserID, now, order); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	raw, err := r.docs.get(ctx, r.pool, id, false)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeOrder(*raw)
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	docs, err := r.docs.list(ctx, r.pool, "owner_id = $1", userID)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, decodeOrder)
}

func (r *pgOrderRepo) ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]model.Order, error) {
	filter, err := json.Marshal([]map[string]string{{"seller_id": sellerID.String()}})
	if err != nil {
		return nil, fmt.Errorf("encode seller filter: %w", err)
	}
	docs, err := r.docs.list(ctx, r.pool, "doc->'items' @> $1::jsonb", filter)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, decodeOrder)
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	next := *order
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	if err := r.docs.replace(ctx, r.pool, order.ID, order.Version, &next); err != nil {
		return err
	}
	*order = next
	return nil
}

func decodeOrder(raw rawDoc) (*model.Order, error) {
	var o model.Order
	if err := json.Unmarshal(raw.data, &o); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	o.Version = raw.version
	return &o, nil
}
