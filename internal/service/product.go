package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/printmarket/internal/logging"
	"github.com/flicky/printmarket/internal/repository"
	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSearchUnavailable = errors.New("product search is not configured")
)

// CatalogPublisher announces product writes to downstream consumers.
type CatalogPublisher interface {
	PublishCatalogEvent(ctx context.Context, event model.CatalogEvent) error
}

// ProductSearcher runs full-text queries over the product index.
type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) ([]model.Product, int64, error)
}

type ProductService struct {
	productRepo repository.ProductRepository
	cache       productCache
	catalog     CatalogPublisher
	searcher    ProductSearcher
}

// NewProductService wires the catalog. redisClient, catalog and searcher are optional.
func NewProductService(
	productRepo repository.ProductRepository,
	redisClient *redis.Client,
	catalog CatalogPublisher,
	searcher ProductSearcher,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		cache:       productCache{client: redisClient},
		catalog:     catalog,
		searcher:    searcher,
	}
}

func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) Featured(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListFeatured(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured products: %w", err)
	}
	return products, nil
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	products, err := s.productRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if cached, ok := s.cache.get(ctx, id); ok {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	s.cache.set(ctx, product)
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, sellerID uuid.UUID, req dto.CreateProductRequest) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		SellerID:              sellerID,
		Title:                 strings.TrimSpace(req.Title),
		Description:           req.Description,
		Images:                req.Images,
		ModelFile:             req.ModelFile,
		Material:              req.Material,
		ColorOptions:          req.ColorOptions,
		Dimensions:            req.Dimensions.Model(),
		Price:                 req.Price,
		Quantity:              req.Quantity,
		EstimatedPrintTime:    req.EstimatedPrintTime,
		EstimatedShippingTime: req.EstimatedShippingTime,
		Category:              req.Category,
		Tags:                  req.Tags,
		Featured:              req.Featured,
		Reviews:               []model.Review{},
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.publish(ctx, model.CatalogProductCreated, product)
	return product, nil
}

// Update applies the non-nil fields of req when sellerID owns the product.
// expectedVersion is the caller's If-Match value; zero skips the precondition.
func (s *ProductService) Update(ctx context.Context, id, sellerID uuid.UUID, req dto.UpdateProductRequest, expectedVersion int) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if expectedVersion == 0 && req.Version != nil {
		expectedVersion = *req.Version
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.SellerID != sellerID {
		return nil, ErrNotOwner
	}
	if expectedVersion != 0 && expectedVersion != product.Version {
		return nil, fmt.Errorf("%w: expected version %d, stored %d", ErrConflict, expectedVersion, product.Version)
	}

	applyProductUpdate(product, req)

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.cache.invalidate(ctx, id)
	s.publish(ctx, model.CatalogProductUpdated, product)
	return product, nil
}

func applyProductUpdate(p *model.Product, req dto.UpdateProductRequest) {
	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Images != nil {
		p.Images = req.Images
	}
	if req.ModelFile != nil {
		p.ModelFile = *req.ModelFile
	}
	if req.Material != nil {
		p.Material = *req.Material
	}
	if req.ColorOptions != nil {
		p.ColorOptions = req.ColorOptions
	}
	if req.Dimensions != nil {
		p.Dimensions = req.Dimensions.Model()
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.EstimatedPrintTime != nil {
		p.EstimatedPrintTime = *req.EstimatedPrintTime
	}
	if req.EstimatedShippingTime != nil {
		p.EstimatedShippingTime = *req.EstimatedShippingTime
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
}

// AddReview appends a review and recomputes the aggregate rating.
func (s *ProductService) AddReview(ctx context.Context, id, userID uuid.UUID, req dto.ReviewRequest) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	product.Reviews = append(product.Reviews, model.Review{
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: time.Now().UTC(),
	})
	product.RecomputeRating()

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("add review: %w", err)
	}

	s.cache.invalidate(ctx, id)
	s.publish(ctx, model.CatalogProductUpdated, product)
	return product, nil
}

func (s *ProductService) Search(ctx context.Context, req dto.SearchProductsRequest) (*dto.ProductSearchResponse, error) {
	if s.searcher == nil {
		return nil, ErrSearchUnavailable
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	products, total, err := s.searcher.Search(ctx, strings.TrimSpace(req.Query), (req.Page-1)*req.Limit, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return &dto.ProductSearchResponse{Products: products, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) publish(ctx context.Context, eventType string, p *model.Product) {
	if s.catalog == nil {
		return
	}
	event := model.CatalogEvent{Type: eventType, ProductID: p.ID, SellerID: p.SellerID, Product: p}
	if err := s.catalog.PublishCatalogEvent(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish catalog event", "type", eventType, "product_id", p.ID, "error", err)
	}
}
