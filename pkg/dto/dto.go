// Package dto holds the JSON request and response shapes shared by the API
// server and pkg/client.
package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/printmarket/pkg/model"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string     `json:"name" binding:"required,notblank"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8"`
	Role     model.Role `json:"role" binding:"required,role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// --- Product ---

type DimensionsInput struct {
	Width  float64    `json:"width" binding:"gt=0"`
	Height float64    `json:"height" binding:"gt=0"`
	Depth  float64    `json:"depth" binding:"gt=0"`
	Unit   model.Unit `json:"unit" binding:"omitempty,unit"`
}

func (d DimensionsInput) Model() model.Dimensions {
	unit := d.Unit
	if unit == "" {
		unit = model.UnitMM
	}
	return model.Dimensions{Width: d.Width, Height: d.Height, Depth: d.Depth, Unit: unit}
}

type CreateProductRequest struct {
	Title                 string          `json:"title" binding:"required,notblank"`
	Description           string          `json:"description" binding:"required,notblank"`
	Images                []string        `json:"images" binding:"omitempty,dive,required,notblank"`
	ModelFile             string          `json:"model_file" binding:"required,notblank"`
	Material              model.Material  `json:"material" binding:"required,material"`
	ColorOptions          []string        `json:"color_options" binding:"required,min=1,dive,required,notblank"`
	Dimensions            DimensionsInput `json:"dimensions"`
	Price                 decimal.Decimal `json:"price" binding:"gte=0"`
	Quantity              int             `json:"quantity" binding:"gte=0"`
	EstimatedPrintTime    string          `json:"estimated_print_time" binding:"required,notblank"`
	EstimatedShippingTime string          `json:"estimated_shipping_time" binding:"required,notblank"`
	Category              string          `json:"category" binding:"required,notblank"`
	Tags                  []string        `json:"tags"`
	Featured              bool            `json:"featured"`
}

// UpdateProductRequest is a partial update; nil fields keep their stored value.
// Version, when set, must match the stored version.
type UpdateProductRequest struct {
	Title                 *string          `json:"title" binding:"omitempty,notblank"`
	Description           *string          `json:"description" binding:"omitempty,notblank"`
	Images                []string         `json:"images" binding:"omitempty,dive,required,notblank"`
	ModelFile             *string          `json:"model_file" binding:"omitempty,notblank"`
	Material              *model.Material  `json:"material" binding:"omitempty,material"`
	ColorOptions          []string         `json:"color_options" binding:"omitempty,min=1,dive,required,notblank"`
	Dimensions            *DimensionsInput `json:"dimensions"`
	Price                 *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
	Quantity              *int             `json:"quantity" binding:"omitempty,gte=0"`
	EstimatedPrintTime    *string          `json:"estimated_print_time" binding:"omitempty,notblank"`
	EstimatedShippingTime *string          `json:"estimated_shipping_time" binding:"omitempty,notblank"`
	Category              *string          `json:"category" binding:"omitempty,notblank"`
	Tags                  []string         `json:"tags"`
	Featured              *bool            `json:"featured"`
	Version               *int             `json:"version" binding:"omitempty,min=1"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type SearchProductsRequest struct {
	Query string `form:"q"`
	Page  int    `form:"page,default=1" binding:"min=1"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=100"`
}

type ProductSearchResponse struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// --- Order ---

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	Color     string    `json:"color" binding:"required,notblank"`
}

type ShippingInfoRequest struct {
	FullName   string `json:"full_name" binding:"required,notblank"`
	Address    string `json:"address" binding:"required,notblank"`
	City       string `json:"city" binding:"required,notblank"`
	PostalCode string `json:"postal_code" binding:"required,notblank"`
	Country    string `json:"country" binding:"required,notblank"`
	Phone      string `json:"phone"`
}

func (s ShippingInfoRequest) Model() model.ShippingInfo {
	return model.ShippingInfo{
		FullName: s.FullName, Address: s.Address, City: s.City,
		PostalCode: s.PostalCode, Country: s.Country, Phone: s.Phone,
	}
}

// CreateOrderRequest carries the client's view of the order. Status is
// accepted for compatibility and ignored; TotalPrice, when present, must
// equal the server-computed total.
type CreateOrderRequest struct {
	Items        []OrderItemRequest  `json:"items" binding:"dive"`
	ShippingInfo ShippingInfoRequest `json:"shipping_info"`
	PaymentInfo  model.PaymentInfo   `json:"payment_info"`
	TotalPrice   *decimal.Decimal    `json:"total_price"`
	Status       string              `json:"status,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Version *int   `json:"version" binding:"omitempty,min=1"`
}

// --- Reel ---

type CreateReelRequest struct {
	Title       string   `json:"title" binding:"required,notblank"`
	Description string   `json:"description"`
	VideoURL    string   `json:"video_url" binding:"required,notblank"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags"`
}

type UpdateReelRequest struct {
	Title       *string  `json:"title" binding:"omitempty,notblank"`
	Description *string  `json:"description"`
	VideoURL    *string  `json:"video_url" binding:"omitempty,notblank"`
	Thumbnail   *string  `json:"thumbnail"`
	Tags        []string `json:"tags"`
}

// CommentRequest accepts the text under "text" or, for older clients, "comment".
type CommentRequest struct {
	Text    string `json:"text"`
	Comment string `json:"comment"`
}

func (r CommentRequest) Body() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Comment
}

type LikeResponse struct {
	Liked bool       `json:"liked"`
	Likes int        `json:"likes"`
	Reel  model.Reel `json:"reel"`
}

// --- Errors ---

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
