package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/printmarket/internal/config"
	"github.com/flicky/printmarket/internal/events"
	"github.com/flicky/printmarket/internal/handler"
	"github.com/flicky/printmarket/internal/logging"
	"github.com/flicky/printmarket/internal/repository"
	"github.com/flicky/printmarket/internal/router"
	"github.com/flicky/printmarket/internal/search"
	"github.com/flicky/printmarket/internal/service"
	"github.com/flicky/printmarket/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := repository.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return repository.NewMongoStore(client, db), nil

	case config.StorePostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("parse db config: %w", err)
		}
		poolCfg.MaxConns = cfg.DB.MaxConns
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return repository.NewPostgresStore(pool), nil

	default:
		return repository.NewMemoryStore(), nil
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error("close store", "error", err)
		}
	}()
	log.Info("store ready", "driver", cfg.Store.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	var (
		amqpConn       *amqp.Connection
		orderPublisher service.OrderPublisher
		restockWorker  *worker.RestockWorker
	)
	if cfg.RabbitMQ.URL != "" {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		defer amqpConn.Close()

		pubCh, err := amqpConn.Channel()
		if err != nil {
			return fmt.Errorf("open RabbitMQ channel: %w", err)
		}
		defer pubCh.Close()

		consumeCh, err := amqpConn.Channel()
		if err != nil {
			return fmt.Errorf("open RabbitMQ channel: %w", err)
		}
		defer consumeCh.Close()

		if err := worker.SetupRabbitMQ(consumeCh); err != nil {
			return fmt.Errorf("setup RabbitMQ: %w", err)
		}
		orderPublisher = events.NewOrderPublisher(pubCh)
		restockWorker = worker.NewRestockWorker(consumeCh, store.Orders, store.Products, redisClient, log)
		log.Info("connected to RabbitMQ")
	} else {
		log.Warn("RABBITMQ_URL not set, order events disabled")
	}

	// Elasticsearch
	var (
		searchClient *search.Client
		searcher     service.ProductSearcher
		searchPing   func(context.Context) error
	)
	if cfg.Elasticsearch.URL != "" {
		searchClient, err = search.NewClient(cfg.Elasticsearch)
		if err != nil {
			return err
		}
		if err := searchClient.EnsureIndex(ctx); err != nil {
			return err
		}
		searcher = searchClient
		searchPing = searchClient.Ping
		log.Info("connected to Elasticsearch", "index", cfg.Elasticsearch.Index)
	} else {
		log.Warn("ES_URL not set, product search disabled")
	}

	// Kafka
	var (
		catalogPublisher service.CatalogPublisher
		indexer          *worker.SearchIndexer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		catalog := events.NewCatalogPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := catalog.Close(); err != nil {
				log.Error("close catalog publisher", "error", err)
			}
		}()
		catalogPublisher = catalog
		if searchClient != nil {
			reader := worker.NewCatalogReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
			indexer = worker.NewSearchIndexer(reader, searchClient, log)
		}
		log.Info("catalog events enabled", "topic", cfg.Kafka.Topic)
	}

	// Services
	authSvc := service.NewAuthService(store.Users, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(store.Products, redisClient, catalogPublisher, searcher)
	orderSvc := service.NewOrderService(store.Orders, store.Products, redisClient, orderPublisher)
	reelSvc := service.NewReelService(store.Reels)

	engine, err := router.New(router.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Product: handler.NewProductHandler(productSvc),
		Order:   handler.NewOrderHandler(orderSvc),
		Reel:    handler.NewReelHandler(reelSvc),
		Health:  handler.NewHealthHandler(cfg.Store.Driver, store.Ping, redisClient, amqpConn, searchPing),
	}, cfg.JWT.Secret, log)
	if err != nil {
		return err
	}

	// Workers
	if restockWorker != nil {
		if err := restockWorker.Start(ctx); err != nil {
			return fmt.Errorf("start restock worker: %w", err)
		}
		defer restockWorker.Stop()
	}
	if indexer != nil {
		indexer.Start(ctx)
		defer func() {
			if err := indexer.Stop(); err != nil {
				log.Error("stop search indexer", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		cancel()
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	cancel()
	log.Info("server stopped")
	return nil
}
