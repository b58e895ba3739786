package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/printmarket/internal/logging"
	"github.com/flicky/printmarket/internal/repository"
	"github.com/flicky/printmarket/pkg/dto"
	"github.com/flicky/printmarket/pkg/model"
)

var (
	ErrEmptyOrder        = errors.New("order has no items")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrTotalMismatch     = errors.New("total price does not match current product prices")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidColor      = errors.New("color is not offered for this product")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Routing keys for order lifecycle events.
const (
	OrderEventPlaced    = "order.placed"
	OrderEventStatus    = "order.status_changed"
	OrderEventCancelled = "order.cancelled"
)

// OrderPublisher delivers order lifecycle events.
type OrderPublisher interface {
	PublishOrderEvent(ctx context.Context, routingKey string, msg model.OrderMessage) error
}

type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	cache       productCache
	publisher   OrderPublisher
}

// NewOrderService wires order handling. redisClient and publisher are optional.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	redisClient *redis.Client,
	publisher OrderPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		cache:       productCache{client: redisClient},
		publisher:   publisher,
	}
}

// Create prices every line from the catalog and places the order as pending.
// A client-supplied total must match the computed one.
func (s *OrderService) Create(ctx context.Context, buyerID uuid.UUID, req dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var total decimal.Decimal
	items := make([]model.OrderItem, 0, len(req.Items))
	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		if len(product.ColorOptions) > 0 && !product.HasColor(line.Color) {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidColor, line.Color, product.Title)
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, model.OrderItem{
			ProductID: product.ID,
			SellerID:  product.SellerID,
			Title:     product.Title,
			Quantity:  line.Quantity,
			Color:     line.Color,
			Price:     product.Price,
		})
		productIDs = append(productIDs, product.ID)
	}

	if req.TotalPrice != nil && !req.TotalPrice.Equal(total) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrTotalMismatch, total.StringFixed(2), req.TotalPrice.String())
	}

	order := &model.Order{
		UserID:       buyerID,
		Items:        items,
		ShippingInfo: req.ShippingInfo.Model(),
		PaymentInfo:  req.PaymentInfo,
		TotalPrice:   total,
		Status:       model.OrderStatusPending,
	}
	if err := s.orderRepo.PlaceOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w: %v", ErrInsufficientStock, err)
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.cache.invalidate(ctx, productIDs...)
	s.publish(ctx, OrderEventPlaced, order)
	return order, nil
}

func (s *OrderService) ListForUser(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID, requesterID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.VisibleTo(requesterID) {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// UpdateStatus moves the order along the status machine. Only a seller of at
// least one line item may do so. expectedVersion zero skips the precondition.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, sellerID uuid.UUID, status string, expectedVersion int) (*model.Order, error) {
	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStatus, err)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !order.SoldBy(sellerID) {
		return nil, ErrOrderAccessDenied
	}
	if expectedVersion != 0 && expectedVersion != order.Version {
		return nil, fmt.Errorf("%w: expected version %d, stored %d", ErrConflict, expectedVersion, order.Version)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order is already %s", ErrInvalidTransition, order.Status)
	}
	if err := order.Status.Transition(next); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	}

	order.Status = next
	if err := s.orderRepo.UpdateStatus(ctx, order); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	key := OrderEventStatus
	if next == model.OrderStatusCancelled {
		key = OrderEventCancelled
	}
	s.publish(ctx, key, order)
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, routingKey string, order *model.Order) {
	if s.publisher == nil {
		return
	}
	msg := model.OrderMessage{
		OrderID:   order.ID,
		UserID:    order.UserID,
		SellerIDs: order.SellerIDs(),
		Status:    order.Status,
	}
	if err := s.publisher.PublishOrderEvent(ctx, routingKey, msg); err != nil {
		logging.FromContext(ctx).Error("publish order event", "routing_key", routingKey, "order_id", order.ID, "error", err)
	}
}
