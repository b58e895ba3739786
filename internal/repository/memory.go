package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/printmarket/pkg/model"
)

// NewMemoryStore returns a process-local store for development and tests.
// Records are deep-copied on the way in and out so callers never share
// state with the store.
func NewMemoryStore() *Store {
	m := &memoryDB{
		users:    make(map[uuid.UUID]*model.User),
		products: make(map[uuid.UUID]*model.Product),
		orders:   make(map[uuid.UUID]*model.Order),
		reels:    make(map[uuid.UUID]*model.Reel),
	}
	return &Store{
		Users:    memUsers{m},
		Products: memProducts{m},
		Orders:   memOrders{m},
		Reels:    memReels{m},
		Ping:     func(context.Context) error { return nil },
		Close:    func(context.Context) error { return nil },
	}
}

type memoryDB struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*model.User
	products map[uuid.UUID]*model.Product
	orders   map[uuid.UUID]*model.Order
	reels    map[uuid.UUID]*model.Reel
	clock    time.Time
}

// now is strictly increasing so newest-first ordering is deterministic.
func (m *memoryDB) now() time.Time {
	t := time.Now().UTC()
	if !t.After(m.clock) {
		t = m.clock.Add(time.Microsecond)
	}
	m.clock = t
	return t
}

func clone[T any](v *T) *T {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("memory store: encode %T: %v", v, err))
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("memory store: decode %T: %v", v, err))
	}
	return out
}

func newestFirstBy[T any](items []T, created func(T) time.Time) []T {
	sort.Slice(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
	return items
}

type memUsers struct{ m *memoryDB }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = r.m.now()
	user.UpdatedAt = user.CreatedAt
	r.m.users[user.ID] = clone(user)
	return nil
}

func (r memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if u, ok := r.m.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, nil
}

type memProducts struct{ m *memoryDB }

func (r memProducts) Create(_ context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p.ID = uuid.New()
	p.Version = 1
	p.CreatedAt = r.m.now()
	p.UpdatedAt = p.CreatedAt
	r.m.products[p.ID] = clone(p)
	return nil
}

func (r memProducts) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if p, ok := r.m.products[id]; ok {
		return clone(p), nil
	}
	return nil, nil
}

func (r memProducts) find(keep func(*model.Product) bool) []model.Product {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.Product{}
	for _, p := range r.m.products {
		if keep(p) {
			out = append(out, *clone(p))
		}
	}
	return newestFirstBy(out, func(p model.Product) time.Time { return p.CreatedAt })
}

func (r memProducts) List(_ context.Context) ([]model.Product, error) {
	return r.find(func(*model.Product) bool { return true }), nil
}

func (r memProducts) ListFeatured(_ context.Context) ([]model.Product, error) {
	return r.find(func(p *model.Product) bool { return p.Featured }), nil
}

func (r memProducts) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	return r.find(func(p *model.Product) bool { return p.SellerID == sellerID }), nil
}

func (r memProducts) Update(_ context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.products[p.ID]
	if !ok || stored.Version != p.Version {
		return ErrVersionConflict
	}
	p.Version++
	p.UpdatedAt = r.m.now()
	r.m.products[p.ID] = clone(p)
	return nil
}

func (r memProducts) IncrementStock(_ context.Context, id uuid.UUID, quantity int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p, ok := r.m.products[id]; ok {
		p.Quantity += quantity
		p.Version++
		p.UpdatedAt = r.m.now()
	}
	return nil
}

type memOrders struct{ m *memoryDB }

func (r memOrders) PlaceOrder(_ context.Context, order *model.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	need := make(map[uuid.UUID]int, len(order.Items))
	for _, item := range order.Items {
		need[item.ProductID] += item.Quantity
	}
	for id, qty := range need {
		p, ok := r.m.products[id]
		if !ok || p.Quantity < qty {
			return fmt.Errorf("%w: product %s", ErrInsufficientStock, id)
		}
	}
	now := r.m.now()
	for id, qty := range need {
		p := r.m.products[id]
		p.Quantity -= qty
		p.Version++
		p.UpdatedAt = now
	}

	order.ID = uuid.New()
	order.Version = 1
	order.CreatedAt = now
	order.UpdatedAt = now
	r.m.orders[order.ID] = clone(order)
	return nil
}

func (r memOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if o, ok := r.m.orders[id]; ok {
		return clone(o), nil
	}
	return nil, nil
}

func (r memOrders) find(keep func(*model.Order) bool) []model.Order {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.Order{}
	for _, o := range r.m.orders {
		if keep(o) {
			out = append(out, *clone(o))
		}
	}
	return newestFirstBy(out, func(o model.Order) time.Time { return o.CreatedAt })
}

func (r memOrders) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	return r.find(func(o *model.Order) bool { return o.UserID == userID }), nil
}

func (r memOrders) ListBySellerID(_ context.Context, sellerID uuid.UUID) ([]model.Order, error) {
	return r.find(func(o *model.Order) bool { return o.SoldBy(sellerID) }), nil
}

func (r memOrders) UpdateStatus(_ context.Context, order *model.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stored, ok := r.m.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return ErrVersionConflict
	}
	stored.Status = order.Status
	stored.Version++
	stored.UpdatedAt = r.m.now()
	order.Version = stored.Version
	order.UpdatedAt = stored.UpdatedAt
	return nil
}

type memReels struct{ m *memoryDB }

func (r memReels) Create(_ context.Context, reel *model.Reel) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reel.ID = uuid.New()
	reel.CreatedAt = r.m.now()
	reel.UpdatedAt = reel.CreatedAt
	r.m.reels[reel.ID] = clone(reel)
	return nil
}

func (r memReels) GetByID(_ context.Context, id uuid.UUID) (*model.Reel, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if reel, ok := r.m.reels[id]; ok {
		return clone(reel), nil
	}
	return nil, nil
}

func (r memReels) List(_ context.Context) ([]model.Reel, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.Reel{}
	for _, reel := range r.m.reels {
		out = append(out, *clone(reel))
	}
	return newestFirstBy(out, func(r model.Reel) time.Time { return r.CreatedAt }), nil
}

func (r memReels) mutate(id uuid.UUID, fn func(*model.Reel)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	reel, ok := r.m.reels[id]
	if !ok {
		return ErrVersionConflict
	}
	fn(reel)
	reel.UpdatedAt = r.m.now()
	return nil
}

func (r memReels) Update(_ context.Context, reel *model.Reel) error {
	return r.mutate(reel.ID, func(stored *model.Reel) {
		stored.Title = reel.Title
		stored.Description = reel.Description
		stored.VideoURL = reel.VideoURL
		stored.Thumbnail = reel.Thumbnail
		stored.Tags = append([]string(nil), reel.Tags...)
	})
}

func (r memReels) AddLike(_ context.Context, id, userID uuid.UUID) error {
	return r.mutate(id, func(stored *model.Reel) {
		for _, l := range stored.Likes {
			if l == userID {
				return
			}
		}
		stored.Likes = append(stored.Likes, userID)
	})
}

func (r memReels) RemoveLike(_ context.Context, id, userID uuid.UUID) error {
	return r.mutate(id, func(stored *model.Reel) {
		kept := []uuid.UUID{}
		for _, l := range stored.Likes {
			if l != userID {
				kept = append(kept, l)
			}
		}
		stored.Likes = kept
	})
}

func (r memReels) AddComment(_ context.Context, id uuid.UUID, comment model.Comment) error {
	return r.mutate(id, func(stored *model.Reel) {
		stored.Comments = append(stored.Comments, comment)
	})
}
