package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/printmarket/internal/events"
	"github.com/flicky/printmarket/internal/repository"
	"github.com/flicky/printmarket/pkg/model"
)

const (
	restockQueueName = "orders.restock"
	dlxExchange      = "orders.dlx"
	dlqQueueName     = "orders.restock.dlq"
	restockKey       = "order.cancelled"
	idempotencyTTL   = 24 * time.Hour
)

var errOrderNotCancelled = errors.New("order is not cancelled")

// IdempotencyStore records which messages have been handled.
type IdempotencyStore interface {
	// Claim marks key as taken and reports whether this caller took it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type redisIdempotency struct {
	client *redis.Client
}

func NewRedisIdempotency(client *redis.Client) IdempotencyStore {
	return redisIdempotency{client: client}
}

func (r redisIdempotency) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}

func (r redisIdempotency) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// RestockWorker returns stock to the catalog when an order is cancelled.
type RestockWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	idempotency IdempotencyStore
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewRestockWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	redisClient *redis.Client,
	log *slog.Logger,
) *RestockWorker {
	return &RestockWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		idempotency: NewRedisIdempotency(redisClient),
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares the order exchange, the restock queue and its DLX/DLQ.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := events.DeclareOrderExchange(ch); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, restockQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(restockQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": restockQueueName,
	}); err != nil {
		return fmt.Errorf("declare restock queue: %w", err)
	}
	if err := ch.QueueBind(restockQueueName, restockKey, events.OrderExchange, false, nil); err != nil {
		return fmt.Errorf("bind restock queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *RestockWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(restockQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("restock worker started", "queue", restockQueueName)
	return nil
}

func (w *RestockWorker) Stop() { close(w.done) }

func (w *RestockWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)

	key := "order_restocked:" + orderMsg.OrderID.String()
	claimed, err := w.idempotency.Claim(ctx, key, idempotencyTTL)
	if err != nil {
		log.Error("claim idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if !claimed {
		log.Info("order already restocked, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.restock(ctx, orderMsg.OrderID); err != nil {
		log.Error("restock failed", "error", err)
		if rerr := w.idempotency.Release(ctx, key); rerr != nil {
			log.Error("release idempotency key", "error", rerr)
		}
		_ = msg.Nack(false, false)
		return
	}

	_ = msg.Ack(false)
	log.Info("order restocked")
}

func (w *RestockWorker) restock(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", orderID)
	}
	if order.Status != model.OrderStatusCancelled {
		return fmt.Errorf("%w: %s is %s", errOrderNotCancelled, orderID, order.Status)
	}

	for _, item := range order.Items {
		if err := w.productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("increment stock of %s: %w", item.ProductID, err)
		}
		if w.redisClient != nil {
			w.redisClient.Del(ctx, "product:"+item.ProductID.String())
		}
	}
	return nil
}
