package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The PostgreSQL backend keeps each collection in a table of JSONB documents.
// owner_id holds the seller, purchaser or author used for filtering and
// authorization; version is the optimistic concurrency counter.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id uuid PRIMARY KEY, owner_id uuid NOT NULL, version int NOT NULL DEFAULT 1,
		created_at timestamptz NOT NULL, doc jsonb NOT NULL)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users ((doc->>'email'))`,
	`CREATE TABLE IF NOT EXISTS products (
		id uuid PRIMARY KEY, owner_id uuid NOT NULL, version int NOT NULL DEFAULT 1,
		created_at timestamptz NOT NULL, doc jsonb NOT NULL)`,
	`CREATE INDEX IF NOT EXISTS products_owner_idx ON products (owner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id uuid PRIMARY KEY, owner_id uuid NOT NULL, version int NOT NULL DEFAULT 1,
		created_at timestamptz NOT NULL, doc jsonb NOT NULL)`,
	`CREATE INDEX IF NOT EXISTS orders_owner_idx ON orders (owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS orders_items_idx ON orders USING gin ((doc->'items') jsonb_path_ops)`,
	`CREATE TABLE IF NOT EXISTS reels (
		id uuid PRIMARY KEY, owner_id uuid NOT NULL, version int NOT NULL DEFAULT 1,
		created_at timestamptz NOT NULL, doc jsonb NOT NULL)`,
}

// Migrate creates the document tables when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// NewPostgresStore wires every repository to the pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:    NewUserRepository(pool),
		Products: NewProductRepository(pool),
		Orders:   NewOrderRepository(pool),
		Reels:    NewReelRepository(pool),
		Ping:     pool.Ping,
		Close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rawDoc struct {
	version int
	data    []byte
}

type pgDocs struct{ table string }

func (d pgDocs) insert(ctx context.Context, q querier, id, ownerID uuid.UUID, createdAt time.Time, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", d.table, err)
	}
	_, err = q.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, owner_id, version, created_at, doc) VALUES ($1, $2, 1, $3, $4)`, d.table),
		id, ownerID, createdAt, data,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", d.table, err)
	}
	return nil
}

func (d pgDocs) get(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*rawDoc, error) {
	query := fmt.Sprintf(`SELECT version, doc FROM %s WHERE id = $1`, d.table)
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var raw rawDoc
	if err := q.QueryRow(ctx, query, id).Scan(&raw.version, &raw.data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", d.table, err)
	}
	return &raw, nil
}

func (d pgDocs) list(ctx context.Context, q querier, where string, args ...any) ([]rawDoc, error) {
	query := fmt.Sprintf(`SELECT version, doc FROM %s`, d.table)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.table, err)
	}
	defer rows.Close()

	var docs []rawDoc
	for rows.Next() {
		var raw rawDoc
		if err := rows.Scan(&raw.version, &raw.data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", d.table, err)
		}
		docs = append(docs, raw)
	}
	return docs, rows.Err()
}

// replace overwrites the document when the stored version equals version.
func (d pgDocs) replace(ctx context.Context, q querier, id uuid.UUID, version int, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", d.table, err)
	}
	ct, err := q.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = $3, version = version + 1 WHERE id = $1 AND version = $2`, d.table),
		id, version, data,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", d.table, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func decodeAll[T any](docs []rawDoc, decode func(rawDoc) (*T, error)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, raw := range docs {
		v, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}
