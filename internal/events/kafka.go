package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/flicky/printmarket/pkg/model"
)

// CatalogPublisher writes product events to a Kafka topic keyed by product
// id, so every event for a product lands on the same partition.
type CatalogPublisher struct {
	writer *kafka.Writer
}

func NewCatalogPublisher(brokers []string, topic string) *CatalogPublisher {
	return &CatalogPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (p *CatalogPublisher) PublishCatalogEvent(ctx context.Context, event model.CatalogEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal catalog event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProductID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write catalog event: %w", err)
	}
	return nil
}

func (p *CatalogPublisher) Close() error {
	return p.writer.Close()
}

// DecodeCatalogEvent parses a message written by CatalogPublisher.
func DecodeCatalogEvent(msg kafka.Message) (model.CatalogEvent, error) {
	var event model.CatalogEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return event, fmt.Errorf("decode catalog event at offset %d: %w", msg.Offset, err)
	}
	if event.Product == nil {
		return event, fmt.Errorf("catalog event %s for %s has no product", event.Type, event.ProductID)
	}
	return event, nil
}
