package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/printmarket/internal/repository"
	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

var ErrReelNotFound = errors.New("reel not found")

type ReelService struct {
	reelRepo repository.ReelRepository
}

func NewReelService(reelRepo repository.ReelRepository) *ReelService {
	return &ReelService{reelRepo: reelRepo}
}

func (s *ReelService) List(ctx context.Context) ([]model.Reel, error) {
	reels, err := s.reelRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reels: %w", err)
	}
	return reels, nil
}

func (s *ReelService) GetByID(ctx context.Context, id uuid.UUID) (*model.Reel, error) {
	reel, err := s.reelRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reel: %w", err)
	}
	if reel == nil {
		return nil, ErrReelNotFound
	}
	return reel, nil
}

func (s *ReelService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateReelRequest) (*model.Reel, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	reel := &model.Reel{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		VideoURL:    req.VideoURL,
		Thumbnail:   req.Thumbnail,
		Tags:        req.Tags,
		Likes:       []uuid.UUID{},
		Comments:    []model.Comment{},
	}
	if err := s.reelRepo.Create(ctx, reel); err != nil {
		return nil, fmt.Errorf("create reel: %w", err)
	}
	return reel, nil
}

func (s *ReelService) Update(ctx context.Context, id, ownerID uuid.UUID, req dto.UpdateReelRequest) (*model.Reel, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	reel, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reel.UserID != ownerID {
		return nil, ErrNotOwner
	}

	if req.Title != nil {
		reel.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		reel.Description = *req.Description
	}
	if req.VideoURL != nil {
		reel.VideoURL = *req.VideoURL
	}
	if req.Thumbnail != nil {
		reel.Thumbnail = *req.Thumbnail
	}
	if req.Tags != nil {
		reel.Tags = req.Tags
	}

	if err := s.reelRepo.Update(ctx, reel); err != nil {
		return nil, s.mutationError("update reel", err)
	}
	return s.GetByID(ctx, id)
}

// ToggleLike flips userID's membership in the reel's like set and reports
// whether the reel is liked afterwards.
func (s *ReelService) ToggleLike(ctx context.Context, id, userID uuid.UUID) (*model.Reel, bool, error) {
	reel, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	liked := reel.ToggleLike(userID)
	if liked {
		err = s.reelRepo.AddLike(ctx, id, userID)
	} else {
		err = s.reelRepo.RemoveLike(ctx, id, userID)
	}
	if err != nil {
		return nil, false, s.mutationError("toggle like", err)
	}
	return reel, liked, nil
}

func (s *ReelService) AddComment(ctx context.Context, id, userID uuid.UUID, text string) (*model.Reel, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	comment := model.Comment{UserID: userID, Text: text, CreatedAt: time.Now().UTC()}
	if err := s.reelRepo.AddComment(ctx, id, comment); err != nil {
		return nil, s.mutationError("add comment", err)
	}
	return s.GetByID(ctx, id)
}

// mutationError maps a vanished reel to ErrReelNotFound.
func (s *ReelService) mutationError(op string, err error) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return ErrReelNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
