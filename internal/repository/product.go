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

type pgProductRepo struct {
	pool *pgxpool.Pool
	docs pgDocs
}

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool, docs: pgDocs{table: "products"}}
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	now := time.Now().UTC()
	product.ID = uuid.New()
	product.Version = 1
	product.CreatedAt = now
	product.UpdatedAt = now
	return r.docs.insert(ctx, r.pool, product.ID, product.SellerID, now, product)
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	raw, err := r.docs.get(ctx, r.pool, id, false)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeProduct(*raw)
}

func (r *pgProductRepo) List(ctx context.Context) ([]model.Product, error) {
	docs, err := r.docs.list(ctx, r.pool, "")
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, decodeProduct)
}

func (r *pgProductRepo) ListFeatured(ctx context.Context) ([]model.Product, error) {
	docs, err := r.docs.list(ctx, r.pool, `doc @> '{"featured": true}'`)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, decodeProduct)
}

func (r *pgProductRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	docs, err := r.docs.list(ctx, r.pool, "owner_id = $1", sellerID)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, decodeProduct)
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	next := *product
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	if err := r.docs.replace(ctx, r.pool, product.ID, product.Version, &next); err != nil {
		return err
	}
	*product = next
	return nil
}

func (r *pgProductRepo) IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE products
		 SET doc = jsonb_set(doc, '{quantity}', to_jsonb((doc->>'quantity')::int + $2)), version = version + 1
		 WHERE id = $1`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

func decodeProduct(raw rawDoc) (*model.Product, error) {
	var p model.Product
	if err := json.Unmarshal(raw.data, &p); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	p.Version = raw.version
	return &p, nil
}
