package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyCart        = errors.New("cart is empty")
)

// Session is one user's client-side state: the bearer token, the signed-in
// profile and the cart. The zero value is not usable; call NewSession.
type Session struct {
	client *Client

	mu    sync.Mutex
	token string
	user  *dto.UserResponse
	cart  Cart
}

func NewSession(client *Client) *Session {
	return &Session{client: client}
}

func (s *Session) Register(ctx context.Context, req dto.RegisterRequest) error {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return err
	}
	s.signIn(resp)
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, dto.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		return err
	}
	s.signIn(resp)
	return nil
}

func (s *Session) signIn(resp *dto.AuthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = resp.Token
	user := resp.User
	s.user = &user
}

// Logout drops the token, the profile and the cart.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.cart.Clear()
}

func (s *Session) Client() *Client {
	return s.client
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the signed-in profile, or nil.
func (s *Session) User() *dto.UserResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) AddToCart(product model.Product, quantity int, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Add(product, quantity, color)
}

func (s *Session) UpdateCartQuantity(productID uuid.UUID, color string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.UpdateQuantity(productID, color, delta)
}

func (s *Session) RemoveFromCart(productID uuid.UUID, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(productID, color)
}

func (s *Session) CartLines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

func (s *Session) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// Checkout places the cart as an order. On success only the ordered lines
// leave the cart; anything added while the request was in flight stays. The
// cart is kept when the server rejects the order so the user can retry.
func (s *Session) Checkout(ctx context.Context, shipping dto.ShippingInfoRequest, payment model.PaymentInfo) (*model.Order, error) {
	s.mu.Lock()
	token := s.token
	items := s.cart.orderItems()
	total := s.cart.Total()
	s.mu.Unlock()

	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order, err := s.client.CreateOrder(ctx, token, dto.CreateOrderRequest{
		Items:        items,
		ShippingInfo: shipping,
		PaymentInfo:  payment,
		TotalPrice:   &total,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cart.subtract(items)
	s.mu.Unlock()
	return order, nil
}
