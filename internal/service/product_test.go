package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

func gearRequest() dto.CreateProductRequest {
	return dto.CreateProductRequest{
		Title:                 "Gear",
		Description:           "Printed spur gear",
		Images:                []string{"gear.png"},
		ModelFile:             "gear.stl",
		Material:              model.MaterialPLA,
		ColorOptions:          []string{"red", "black"},
		Dimensions:            dto.DimensionsInput{Width: 40, Height: 40, Depth: 8},
		Price:                 decimal.RequireFromString("19.99"),
		Quantity:              10,
		EstimatedPrintTime:    "3h",
		EstimatedShippingTime: "2-4 days",
		Category:              "mechanical",
		Tags:                  []string{"gear"},
	}
}

func TestProductService_Create_RoundTrip(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	seller := uuid.New()

	created, err := svc.Create(context.Background(), seller, gearRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gear", got.Title)
	assert.Equal(t, seller, got.SellerID)
	assert.Equal(t, model.MaterialPLA, got.Material)
	assert.Equal(t, model.UnitMM, got.Dimensions.Unit, "unit defaults to mm")
	assert.True(t, decimal.RequireFromString("19.99").Equal(got.Price))
	assert.Equal(t, 10, got.Quantity)
	assert.Zero(t, got.Rating)
	assert.Equal(t, 1, got.Version)
}

func TestProductService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.CreateProductRequest)
	}{
		{"negative price", func(r *dto.CreateProductRequest) { r.Price = decimal.RequireFromString("-1") }},
		{"negative quantity", func(r *dto.CreateProductRequest) { r.Quantity = -1 }},
		{"unknown material", func(r *dto.CreateProductRequest) { r.Material = "Wood" }},
		{"bad unit", func(r *dto.CreateProductRequest) { r.Dimensions.Unit = "ft" }},
		{"zero width", func(r *dto.CreateProductRequest) { r.Dimensions.Width = 0 }},
		{"no colors", func(r *dto.CreateProductRequest) { r.ColorOptions = nil }},
		{"missing title", func(r *dto.CreateProductRequest) { r.Title = "" }},
		{"blank title", func(r *dto.CreateProductRequest) { r.Title = "   " }},
		{"blank category", func(r *dto.CreateProductRequest) { r.Category = "\t" }},
		{"blank color option", func(r *dto.CreateProductRequest) { r.ColorOptions = []string{"red", " "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockProductRepo()
			svc := NewProductService(repo, nil, nil, nil)
			req := gearRequest()
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), uuid.New(), req)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, repo.products)
		})
	}
}

func TestProductService_Create_ZeroPriceAndStockAllowed(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	req := gearRequest()
	req.Price = decimal.Zero
	req.Quantity = 0

	_, err := svc.Create(context.Background(), uuid.New(), req)
	assert.NoError(t, err)
}

func TestProductService_GearScenario(t *testing.T) {
	ctx := context.Background()
	repo := newMockProductRepo()
	svc := NewProductService(repo, nil, nil, nil)
	s1, s2 := uuid.New(), uuid.New()

	gear, err := svc.Create(ctx, s1, gearRequest())
	require.NoError(t, err)

	stolen := "Stolen gear"
	_, err = svc.Update(ctx, gear.ID, s2, dto.UpdateProductRequest{Title: &stolen}, 0)
	assert.ErrorIs(t, err, ErrNotOwner)

	unchanged, err := svc.GetByID(ctx, gear.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gear", unchanged.Title)
	assert.Equal(t, gear.Version, unchanged.Version)

	price := decimal.RequireFromString("24.99")
	updated, err := svc.Update(ctx, gear.ID, s1, dto.UpdateProductRequest{Price: &price}, 0)
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, "Gear", updated.Title, "partial update keeps other fields")
	assert.Equal(t, s1, updated.SellerID)
	assert.Equal(t, 2, updated.Version)
}

func TestProductService_Update_StaleVersion(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	seller := uuid.New()

	p, err := svc.Create(ctx, seller, gearRequest())
	require.NoError(t, err)

	qty := 3
	_, err = svc.Update(ctx, p.ID, seller, dto.UpdateProductRequest{Quantity: &qty}, 1)
	require.NoError(t, err)

	qty = 4
	_, err = svc.Update(ctx, p.ID, seller, dto.UpdateProductRequest{Quantity: &qty}, 1)
	assert.ErrorIs(t, err, ErrConflict)

	stale := 1
	_, err = svc.Update(ctx, p.ID, seller, dto.UpdateProductRequest{Quantity: &qty, Version: &stale}, 0)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProductService_Update_RejectsNegativePrice(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	seller := uuid.New()
	p, err := svc.Create(ctx, seller, gearRequest())
	require.NoError(t, err)

	neg := decimal.RequireFromString("-5")
	_, err = svc.Update(ctx, p.ID, seller, dto.UpdateProductRequest{Price: &neg}, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductService_Update_RejectsBlankTitle(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	seller := uuid.New()
	p, err := svc.Create(ctx, seller, gearRequest())
	require.NoError(t, err)

	blank := "   "
	_, err = svc.Update(ctx, p.ID, seller, dto.UpdateProductRequest{Title: &blank}, 0)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorContains(t, err, "title is required")

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gear", got.Title)
	assert.Equal(t, 1, got.Version)

	padded := "  Gear v2 "
	updated, err := svc.Update(ctx, p.ID, seller, dto.UpdateProductRequest{Title: &padded}, 0)
	require.NoError(t, err)
	assert.Equal(t, "Gear v2", updated.Title)
}

func TestProductService_Update_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	title := "x"
	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), dto.UpdateProductRequest{Title: &title}, 0)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	_, err := svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_FeaturedAndSellerListings(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	s1, s2 := uuid.New(), uuid.New()

	first, err := svc.Create(ctx, s1, gearRequest())
	require.NoError(t, err)
	featuredReq := gearRequest()
	featuredReq.Featured = true
	second, err := svc.Create(ctx, s2, featuredReq)
	require.NoError(t, err)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	featured, err := svc.Featured(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, second.ID, featured[0].ID)

	mine, err := svc.ListBySeller(ctx, s1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}

func TestProductService_AddReview(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(newMockProductRepo(), nil, nil, nil)
	p, err := svc.Create(ctx, uuid.New(), gearRequest())
	require.NoError(t, err)

	for _, rating := range []int{5, 4, 4} {
		_, err = svc.AddReview(ctx, p.ID, uuid.New(), dto.ReviewRequest{Rating: rating, Comment: "ok"})
		require.NoError(t, err)
	}

	got, err := svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reviews, 3)
	assert.InDelta(t, 4.3, got.Rating, 0.001)

	_, err = svc.AddReview(ctx, p.ID, uuid.New(), dto.ReviewRequest{Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductService_PublishesCatalogEvents(t *testing.T) {
	ctx := context.Background()
	catalog := new(mockCatalogPublisher)
	catalog.On("PublishCatalogEvent", mock.Anything, mock.MatchedBy(func(e model.CatalogEvent) bool {
		return e.Type == model.CatalogProductCreated
	})).Return(nil).Once()
	catalog.On("PublishCatalogEvent", mock.Anything, mock.MatchedBy(func(e model.CatalogEvent) bool {
		return e.Type == model.CatalogProductUpdated
	})).Return(errors.New("broker down")).Once()

	svc := NewProductService(newMockProductRepo(), nil, catalog, nil)
	seller := uuid.New()
	p, err := svc.Create(ctx, seller, gearRequest())
	require.NoError(t, err)

	featured := true
	_, err = svc.Update(ctx, p.ID, seller, dto.UpdateProductRequest{Featured: &featured}, 0)
	require.NoError(t, err, "publish failures do not fail the write")

	catalog.AssertExpectations(t)
}

func TestProductService_Search(t *testing.T) {
	ctx := context.Background()

	_, err := NewProductService(newMockProductRepo(), nil, nil, nil).Search(ctx, dto.SearchProductsRequest{Query: "gear"})
	assert.ErrorIs(t, err, ErrSearchUnavailable)

	searcher := new(mockSearcher)
	searcher.On("Search", mock.Anything, "gear", 20, 10).
		Return([]model.Product{{Title: "Gear"}}, int64(11), nil)

	svc := NewProductService(newMockProductRepo(), nil, nil, searcher)
	resp, err := svc.Search(ctx, dto.SearchProductsRequest{Query: " gear ", Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.Total)
	require.Len(t, resp.Products, 1)
	searcher.AssertExpectations(t)
}
