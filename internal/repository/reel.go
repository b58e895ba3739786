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

type pgReelRepo struct {
	pool *pgxpool.Pool
	docs pgDocs
}

func NewReelRepository(pool *pgxpool.Pool) ReelRepository {
	return &pgReelRepo{pool: pool, docs: pgDocs{table: "reels"}}
}

func (r *pgReelRepo) Create(ctx context.Context, reel *model.Reel) error {
	now := time.Now().UTC()
	reel.ID = uuid.New()
	reel.CreatedAt = now
	reel.UpdatedAt = now
	return r.docs.insert(ctx, r.pool, reel.ID, reel.UserID, now, reel)
}

func (r *pgReelRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Reel, error) {
	raw, err := r.docs.get(ctx, r.pool, id, false)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeReel(*raw)
}

func (r *pgReelRepo) List(ctx context.Context) ([]model.Reel, error) {
	docs, err := r.docs.list(ctx, r.pool, "")
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, decodeReel)
}

// Update writes the owner-editable fields, leaving likes and comments as stored.
func (r *pgReelRepo) Update(ctx context.Context, reel *model.Reel) error {
	reel.UpdatedAt = time.Now().UTC()
	return r.mutate(ctx, reel.ID, func(stored *model.Reel) {
		stored.Title = reel.Title
		stored.Description = reel.Description
		stored.VideoURL = reel.VideoURL
		stored.Thumbnail = reel.Thumbnail
		stored.Tags = reel.Tags
		stored.UpdatedAt = reel.UpdatedAt
	})
}

func (r *pgReelRepo) AddLike(ctx context.Context, id, userID uuid.UUID) error {
	return r.mutate(ctx, id, func(stored *model.Reel) {
		for _, l := range stored.Likes {
			if l == userID {
				return
			}
		}
		stored.Likes = append(stored.Likes, userID)
	})
}

func (r *pgReelRepo) RemoveLike(ctx context.Context, id, userID uuid.UUID) error {
	return r.mutate(ctx, id, func(stored *model.Reel) {
		kept := stored.Likes[:0]
		for _, l := range stored.Likes {
			if l != userID {
				kept = append(kept, l)
			}
		}
		stored.Likes = kept
	})
}

func (r *pgReelRepo) AddComment(ctx context.Context, id uuid.UUID, comment model.Comment) error {
	return r.mutate(ctx, id, func(stored *model.Reel) {
		stored.Comments = append(stored.Comments, comment)
	})
}

// mutate applies fn to the stored reel under a row lock.
func (r *pgReelRepo) mutate(ctx context.Context, id uuid.UUID, fn func(*model.Reel)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	raw, err := r.docs.get(ctx, tx, id, true)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrVersionConflict
	}
	stored, err := decodeReel(*raw)
	if err != nil {
		return err
	}
	fn(stored)
	if err := r.docs.replace(ctx, tx, id, raw.version, stored); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func decodeReel(raw rawDoc) (*model.Reel, error) {
	var reel model.Reel
	if err := json.Unmarshal(raw.data, &reel); err != nil {
		return nil, fmt.Errorf("decode reel: %w", err)
	}
	return &reel, nil
}
