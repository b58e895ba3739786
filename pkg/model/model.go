// Package model defines the marketplace entities and their invariants.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password_hash"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Material string

const (
	MaterialPLA    Material = "PLA"
	MaterialABS    Material = "ABS"
	MaterialResin  Material = "Resin"
	MaterialNylon  Material = "Nylon"
	MaterialCustom Material = "Custom"
)

var Materials = []Material{MaterialPLA, MaterialABS, MaterialResin, MaterialNylon, MaterialCustom}

func (m Material) Valid() bool {
	for _, v := range Materials {
		if m == v {
			return true
		}
	}
	return false
}

type Unit string

const (
	UnitMM Unit = "mm"
	UnitCM Unit = "cm"
	UnitIN Unit = "in"
)

func (u Unit) Valid() bool {
	return u == UnitMM || u == UnitCM || u == UnitIN
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
	Unit   Unit    `json:"unit"`
}

type Review struct {
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID                    uuid.UUID       `json:"id"`
	SellerID              uuid.UUID       `json:"seller_id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Images                []string        `json:"images"`
	ModelFile             string          `json:"model_file"`
	Material              Material        `json:"material"`
	ColorOptions          []string        `json:"color_options"`
	Dimensions            Dimensions      `json:"dimensions"`
	Price                 decimal.Decimal `json:"price"`
	Quantity              int             `json:"quantity"`
	EstimatedPrintTime    string          `json:"estimated_print_time"`
	EstimatedShippingTime string          `json:"estimated_shipping_time"`
	Category              string          `json:"category"`
	Tags                  []string        `json:"tags"`
	Featured              bool            `json:"featured"`
	Rating                float64         `json:"rating"`
	Reviews               []Review        `json:"reviews"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// HasColor reports whether color is one of the product's options.
func (p *Product) HasColor(color string) bool {
	for _, c := range p.ColorOptions {
		if c == color {
			return true
		}
	}
	return false
}

// RecomputeRating sets Rating to the mean of all review ratings, rounded to one decimal.
func (p *Product) RecomputeRating() {
	if len(p.Reviews) == 0 {
		p.Rating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(p.Reviews))))
	p.Rating = avg.Round(1).InexactFloat64()
}

type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Color     string          `json:"color"`
	Price     decimal.Decimal `json:"price"`
}

type ShippingInfo struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// PaymentInfo is stored as given; no gateway is involved.
type PaymentInfo struct {
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
}

type Order struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Items        []OrderItem     `json:"items"`
	ShippingInfo ShippingInfo    `json:"shipping_info"`
	PaymentInfo  PaymentInfo     `json:"payment_info"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Status       OrderStatus     `json:"status"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SellerIDs returns the distinct sellers of the order's line items.
func (o *Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(o.Items))
	var ids []uuid.UUID
	for _, item := range o.Items {
		if !seen[item.SellerID] {
			seen[item.SellerID] = true
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// SoldBy reports whether sellerID owns at least one line item.
func (o *Order) SoldBy(sellerID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// VisibleTo reports whether userID is the purchaser or a seller of the order.
func (o *Order) VisibleTo(userID uuid.UUID) bool {
	return o.UserID == userID || o.SoldBy(userID)
}

type Comment struct {
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Reel struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoURL    string      `json:"video_url"`
	Thumbnail   string      `json:"thumbnail"`
	Tags        []string    `json:"tags"`
	Likes       []uuid.UUID `json:"likes"`
	Comments    []Comment   `json:"comments"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ToggleLike adds userID to the like set, or removes it when already present.
// It reports whether the reel is liked by userID afterwards.
func (r *Reel) ToggleLike(userID uuid.UUID) bool {
	for i, id := range r.Likes {
		if id == userID {
			r.Likes = append(r.Likes[:i], r.Likes[i+1:]...)
			return false
		}
	}
	r.Likes = append(r.Likes, userID)
	return true
}

type OrderMessage struct {
	OrderID   uuid.UUID   `json:"order_id"`
	UserID    uuid.UUID   `json:"user_id"`
	SellerIDs []uuid.UUID `json:"seller_ids"`
	Status    OrderStatus `json:"status"`
}

// CatalogEvent is published for every product write and consumed by the search indexer.
type CatalogEvent struct {
	Type      string    `json:"type"`
	ProductID uuid.UUID `json:"product_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Product   *Product  `json:"product,omitempty"`
}

const (
	CatalogProductCreated = "product.created"
	CatalogProductUpdated = "product.updated"
)
