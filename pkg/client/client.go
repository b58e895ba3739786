// Package client is a Go client for the marketplace API. It also holds the
// per-user session state (token, profile and cart) that a storefront keeps
// between requests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError carrying code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets the API mounted at baseURL, e.g. "http://localhost:8080/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type request struct {
	method  string
	path    string
	token   string
	body    any
	ifMatch int
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.ifMatch > 0 {
		req.Header.Set("If-Match", strconv.Quote(strconv.Itoa(r.ifMatch)))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e dto.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Code == "" {
			return &APIError{Status: resp.StatusCode, Code: "HTTP_" + strconv.Itoa(resp.StatusCode), Message: resp.Status}
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// --- Auth ---

func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Products ---

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products"}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) FeaturedProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/featured"}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) SellerProducts(ctx context.Context, sellerID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/seller/" + sellerID.String()}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) SearchProducts(ctx context.Context, query string, page, limit int) (*dto.ProductSearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp dto.ProductSearchResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/search?" + q.Encode()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + id.String()}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) CreateProduct(ctx context.Context, token string, req dto.CreateProductRequest) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, request{method: http.MethodPost, path: "/products", token: token, body: req}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct sends a partial update. A positive version is sent as If-Match.
func (c *Client) UpdateProduct(ctx context.Context, token string, id uuid.UUID, req dto.UpdateProductRequest, version int) (*model.Product, error) {
	var product model.Product
	r := request{method: http.MethodPut, path: "/products/" + id.String(), token: token, body: req, ifMatch: version}
	if err := c.do(ctx, r, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) AddReview(ctx context.Context, token string, id uuid.UUID, req dto.ReviewRequest) (*model.Product, error) {
	var product model.Product
	r := request{method: http.MethodPost, path: "/products/" + id.String() + "/reviews", token: token, body: req}
	if err := c.do(ctx, r, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// --- Orders ---

func (c *Client) ListOrders(ctx context.Context, token string) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders", token: token}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) ListSellerOrders(ctx context.Context, token string) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/seller", token: token}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, token string, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, request{method: http.MethodGet, path: "/orders/" + id.String(), token: token}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) CreateOrder(ctx context.Context, token string, req dto.CreateOrderRequest) (*model.Order, error) {
	var order model.Order
	if err := c.do(ctx, request{method: http.MethodPost, path: "/orders", token: token, body: req}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token string, id uuid.UUID, status model.OrderStatus, version int) (*model.Order, error) {
	var order model.Order
	r := request{
		method: http.MethodPut, path: "/orders/" + id.String() + "/status", token: token,
		body: dto.UpdateOrderStatusRequest{Status: string(status)}, ifMatch: version,
	}
	if err := c.do(ctx, r, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// --- Reels ---

func (c *Client) ListReels(ctx context.Context) ([]model.Reel, error) {
	var reels []model.Reel
	if err := c.do(ctx, request{method: http.MethodGet, path: "/reels"}, &reels); err != nil {
		return nil, err
	}
	return reels, nil
}

func (c *Client) GetReel(ctx context.Context, id uuid.UUID) (*model.Reel, error) {
	var reel model.Reel
	if err := c.do(ctx, request{method: http.MethodGet, path: "/reels/" + id.String()}, &reel); err != nil {
		return nil, err
	}
	return &reel, nil
}

func (c *Client) CreateReel(ctx context.Context, token string, req dto.CreateReelRequest) (*model.Reel, error) {
	var reel model.Reel
	if err := c.do(ctx, request{method: http.MethodPost, path: "/reels", token: token, body: req}, &reel); err != nil {
		return nil, err
	}
	return &reel, nil
}

func (c *Client) ToggleLike(ctx context.Context, token string, id uuid.UUID) (*dto.LikeResponse, error) {
	var resp dto.LikeResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: "/reels/" + id.String() + "/like", token: token}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddComment(ctx context.Context, token string, id uuid.UUID, text string) (*model.Reel, error) {
	var reel model.Reel
	r := request{method: http.MethodPost, path: "/reels/" + id.String() + "/comments", token: token, body: dto.CommentRequest{Text: text}}
	if err := c.do(ctx, r, &reel); err != nil {
		return nil, err
	}
	return &reel, nil
}
