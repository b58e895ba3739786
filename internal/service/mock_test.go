package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/flicky/printmarket/internal/repository"
	"github.com/flicky/printmarket/pkg/model"
)

// Map-backed repositories. Reads return copies so callers cannot mutate
// stored state without going through a write.

type mockProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	seq      time.Time
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product), seq: time.Now().UTC()}
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq = m.seq.Add(time.Millisecond)
	p.ID = uuid.New()
	p.Version = 1
	p.CreatedAt = m.seq
	p.UpdatedAt = m.seq
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) filter(keep func(*model.Product) bool) []model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.products {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *mockProductRepo) List(_ context.Context) ([]model.Product, error) {
	return m.filter(func(*model.Product) bool { return true }), nil
}

func (m *mockProductRepo) ListFeatured(_ context.Context) ([]model.Product, error) {
	return m.filter(func(p *model.Product) bool { return p.Featured }), nil
}

func (m *mockProductRepo) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	return m.filter(func(p *model.Product) bool { return p.SellerID == sellerID }), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.products[p.ID]
	if !ok || stored.Version != p.Version {
		return repository.ErrVersionConflict
	}
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) IncrementStock(_ context.Context, id uuid.UUID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.Quantity += qty
		p.Version++
	}
	return nil
}

type mockOrderRepo struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*model.Order
	products *mockProductRepo
}

func newMockOrderRepo(products *mockProductRepo) *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order), products: products}
}

func (m *mockOrderRepo) PlaceOrder(_ context.Context, order *model.Order) error {
	m.products.mu.Lock()
	for _, item := range order.Items {
		p, ok := m.products.products[item.ProductID]
		if !ok || p.Quantity < item.Quantity {
			m.products.mu.Unlock()
			return repository.ErrInsufficientStock
		}
	}
	for _, item := range order.Items {
		m.products.products[item.ProductID].Quantity -= item.Quantity
	}
	m.products.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = uuid.New()
	order.Version = 1
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) list(keep func(*model.Order) bool) []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, *o)
		}
	}
	return out
}

func (m *mockOrderRepo) ListByUserID(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	return m.list(func(o *model.Order) bool { return o.UserID == userID }), nil
}

func (m *mockOrderRepo) ListBySellerID(_ context.Context, sellerID uuid.UUID) ([]model.Order, error) {
	return m.list(func(o *model.Order) bool { return o.SoldBy(sellerID) }), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok || stored.Version != order.Version {
		return repository.ErrVersionConflict
	}
	order.Version++
	stored.Status = order.Status
	stored.Version = order.Version
	return nil
}

type mockReelRepo struct {
	mu    sync.Mutex
	reels map[uuid.UUID]*model.Reel
}

func newMockReelRepo() *mockReelRepo {
	return &mockReelRepo{reels: make(map[uuid.UUID]*model.Reel)}
}

func (m *mockReelRepo) Create(_ context.Context, r *model.Reel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.CreatedAt = time.Now().UTC()
	cp := *r
	m.reels[r.ID] = &cp
	return nil
}

func (m *mockReelRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Reel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reels[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	cp.Likes = append([]uuid.UUID{}, r.Likes...)
	cp.Comments = append([]model.Comment{}, r.Comments...)
	return &cp, nil
}

func (m *mockReelRepo) List(_ context.Context) ([]model.Reel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reel
	for _, r := range m.reels {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockReelRepo) mutate(id uuid.UUID, fn func(*model.Reel)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reels[id]
	if !ok {
		return repository.ErrVersionConflict
	}
	fn(r)
	return nil
}

func (m *mockReelRepo) Update(_ context.Context, reel *model.Reel) error {
	return m.mutate(reel.ID, func(r *model.Reel) {
		r.Title, r.Description, r.VideoURL = reel.Title, reel.Description, reel.VideoURL
		r.Thumbnail, r.Tags = reel.Thumbnail, reel.Tags
	})
}

func (m *mockReelRepo) AddLike(_ context.Context, id, userID uuid.UUID) error {
	return m.mutate(id, func(r *model.Reel) {
		for _, l := range r.Likes {
			if l == userID {
				return
			}
		}
		r.Likes = append(r.Likes, userID)
	})
}

func (m *mockReelRepo) RemoveLike(_ context.Context, id, userID uuid.UUID) error {
	return m.mutate(id, func(r *model.Reel) {
		kept := make([]uuid.UUID, 0, len(r.Likes))
		for _, l := range r.Likes {
			if l != userID {
				kept = append(kept, l)
			}
		}
		r.Likes = kept
	})
}

func (m *mockReelRepo) AddComment(_ context.Context, id uuid.UUID, c model.Comment) error {
	return m.mutate(id, func(r *model.Reel) { r.Comments = append(r.Comments, c) })
}

type mockOrderPublisher struct{ mock.Mock }

func (m *mockOrderPublisher) PublishOrderEvent(ctx context.Context, key string, msg model.OrderMessage) error {
	return m.Called(ctx, key, msg).Error(0)
}

type mockCatalogPublisher struct{ mock.Mock }

func (m *mockCatalogPublisher) PublishCatalogEvent(ctx context.Context, event model.CatalogEvent) error {
	return m.Called(ctx, event).Error(0)
}

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Search(ctx context.Context, q string, from, size int) ([]model.Product, int64, error) {
	args := m.Called(ctx, q, from, size)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Get(1).(int64), args.Error(2)
}
