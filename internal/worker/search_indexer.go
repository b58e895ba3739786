package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/flicky/printmarket/internal/events"
	"github.com/flicky/printmarket/pkg/model"
)

const indexAttempts = 3

// ProductIndexer writes products into the search index.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *model.Product) error
}

// MessageReader is the subset of *kafka.Reader used by the indexer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewCatalogReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}

// SearchIndexer consumes catalog events and mirrors products into search.
type SearchIndexer struct {
	reader  MessageReader
	indexer ProductIndexer
	log     *slog.Logger
	backoff time.Duration
	stopped chan struct{}
}

func NewSearchIndexer(reader MessageReader, indexer ProductIndexer, log *slog.Logger) *SearchIndexer {
	return &SearchIndexer{
		reader:  reader,
		indexer: indexer,
		log:     log,
		backoff: 500 * time.Millisecond,
		stopped: make(chan struct{}),
	}
}

// Start runs the consume loop until ctx is cancelled.
func (s *SearchIndexer) Start(ctx context.Context) {
	go func() {
		defer close(s.stopped)
		s.log.Info("search indexer started")
		for {
			msg, err := s.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
					return
				}
				s.log.Error("fetch catalog event", "error", err)
				if !s.sleep(ctx) {
					return
				}
				continue
			}
			s.handle(ctx, msg)
		}
	}()
}

// Stop waits for the consume loop to exit and closes the reader.
func (s *SearchIndexer) Stop() error {
	<-s.stopped
	return s.reader.Close()
}

func (s *SearchIndexer) handle(ctx context.Context, msg kafka.Message) {
	log := s.log.With("offset", msg.Offset, "partition", msg.Partition)

	event, err := events.DecodeCatalogEvent(msg)
	if err != nil {
		log.Error("skip malformed catalog event", "error", err)
		s.commit(ctx, msg)
		return
	}

	if err := s.index(ctx, event.Product); err != nil {
		log.Error("index product", "product_id", event.ProductID, "error", err)
	} else {
		log.Debug("product indexed", "product_id", event.ProductID, "type", event.Type)
	}
	s.commit(ctx, msg)
}

func (s *SearchIndexer) index(ctx context.Context, p *model.Product) error {
	var err error
	for attempt := 1; attempt <= indexAttempts; attempt++ {
		if err = s.indexer.IndexProduct(ctx, p); err == nil {
			return nil
		}
		if attempt < indexAttempts && !s.sleep(ctx) {
			break
		}
	}
	return fmt.Errorf("after %d attempts: %w", indexAttempts, err)
}

func (s *SearchIndexer) commit(ctx context.Context, msg kafka.Message) {
	if err := s.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		s.log.Error("commit catalog event", "offset", msg.Offset, "error", err)
	}
}

func (s *SearchIndexer) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(s.backoff):
		return true
	}
}
