package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/printmarket/pkg/model"
)

// OrderExchange is the topic exchange carrying order lifecycle events,
// routed by keys such as "order.placed" and "order.cancelled".
const OrderExchange = "orders"

// DeclareOrderExchange declares the durable order topic exchange.
func DeclareOrderExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(OrderExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare order exchange: %w", err)
	}
	return nil
}

type OrderPublisher struct {
	mu sync.Mutex
	ch *amqp.Channel
}

func NewOrderPublisher(ch *amqp.Channel) *OrderPublisher {
	return &OrderPublisher{ch: ch}
}

func (p *OrderPublisher) PublishOrderEvent(ctx context.Context, routingKey string, msg model.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, OrderExchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.OrderID.String() + ":" + string(msg.Status),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}
