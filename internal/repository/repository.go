package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/flicky/printmarket/pkg/model"
)

var (
	ErrVersionConflict   = errors.New("version conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateEmail    = errors.New("email already registered")
)

// Lookups return (nil, nil) when the record does not exist. Writes guarded by a
// version return ErrVersionConflict when the stored version differs, and bump
// the version on the passed model on success.

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	ListFeatured(ctx context.Context) ([]model.Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	IncrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
}

type OrderRepository interface {
	// PlaceOrder decrements stock for every line item and inserts the order in
	// one transaction.
	PlaceOrder(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]model.Order, error)
	UpdateStatus(ctx context.Context, order *model.Order) error
}

type ReelRepository interface {
	Create(ctx context.Context, reel *model.Reel) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reel, error)
	List(ctx context.Context) ([]model.Reel, error)
	Update(ctx context.Context, reel *model.Reel) error
	AddLike(ctx context.Context, id, userID uuid.UUID) error
	RemoveLike(ctx context.Context, id, userID uuid.UUID) error
	AddComment(ctx context.Context, id uuid.UUID, comment model.Comment) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users    UserRepository
	Products ProductRepository
	Orders   OrderRepository
	Reels    ReelRepository
	Ping     func(ctx context.Context) error
	Close    func(ctx context.Context) error
}
