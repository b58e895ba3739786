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

type mongoReelRepo struct {
	coll *mongo.Collection
}

func NewMongoReelRepository(db *mongo.Database) ReelRepository {
	return &mongoReelRepo{coll: db.Collection(reelsCollection)}
}

func (r *mongoReelRepo) Create(ctx context.Context, reel *model.Reel) error {
	now := time.Now().UTC()
	reel.ID = uuid.New()
	reel.CreatedAt = now
	reel.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, toReelDoc(reel)); err != nil {
		return fmt.Errorf("insert reel: %w", err)
	}
	return nil
}

func (r *mongoReelRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Reel, error) {
	var doc reelDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reel: %w", err)
	}
	return doc.model(), nil
}

func (r *mongoReelRepo) List(ctx context.Context) ([]model.Reel, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list reels: %w", err)
	}
	var docs []reelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reels: %w", err)
	}
	reels := make([]model.Reel, 0, len(docs))
	for _, d := range docs {
		reels = append(reels, *d.model())
	}
	return reels, nil
}

// Update writes the owner-editable fields, leaving likes and comments as stored.
func (r *mongoReelRepo) Update(ctx context.Context, reel *model.Reel) error {
	reel.UpdatedAt = time.Now().UTC()
	return r.updateOne(ctx, reel.ID, bson.M{"$set": bson.M{
		"title":       reel.Title,
		"description": reel.Description,
		"videoUrl":    reel.VideoURL,
		"thumbnail":   reel.Thumbnail,
		"tags":        reel.Tags,
		"updatedAt":   reel.UpdatedAt,
	}})
}

func (r *mongoReelRepo) AddLike(ctx context.Context, id, userID uuid.UUID) error {
	return r.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID.String()}})
}

func (r *mongoReelRepo) RemoveLike(ctx context.Context, id, userID uuid.UUID) error {
	return r.updateOne(ctx, id, bson.M{"$pull": bson.M{"likes": userID.String()}})
}

func (r *mongoReelRepo) AddComment(ctx context.Context, id uuid.UUID, comment model.Comment) error {
	return r.updateOne(ctx, id, bson.M{"$push": bson.M{"comments": commentDoc{
		User: comment.UserID.String(), Text: comment.Text, CreatedAt: comment.CreatedAt,
	}}})
}

func (r *mongoReelRepo) updateOne(ctx context.Context, id uuid.UUID, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, update)
	if err != nil {
		return fmt.Errorf("update reel: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}
