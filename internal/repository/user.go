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

	"github.com/flicky/printmarket/pkg/model"
)

const pgUniqueViolation = "23505"

type pgUserRepo struct {
	pool *pgxpool.Pool
	docs pgDocs
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepo{pool: pool, docs: pgDocs{table: "users"}}
}

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	err := r.docs.insert(ctx, r.pool, user.ID, user.ID, now, user)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	raw, err := r.docs.get(ctx, r.pool, id, false)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeUser(raw.data)
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM users WHERE doc->>'email' = $1`, email).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return decodeUser(data)
}

func decodeUser(data []byte) (*model.User, error) {
	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}
