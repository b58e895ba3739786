package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports liveness and the reachability of backing services.
// Optional dependencies left nil are reported as "disabled".
type HealthHandler struct {
	storeName   string
	storePing   func(ctx context.Context) error
	redisClient *redis.Client
	amqpConn    *amqp.Connection
	searchPing  func(ctx context.Context) error
}

func NewHealthHandler(
	storeName string,
	storePing func(ctx context.Context) error,
	redisClient *redis.Client,
	amqpConn *amqp.Connection,
	searchPing func(ctx context.Context) error,
) *HealthHandler {
	return &HealthHandler{
		storeName: storeName, storePing: storePing,
		redisClient: redisClient, amqpConn: amqpConn, searchPing: searchPing,
	}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()
	body := gin.H{"status": "ok"}
	ready := true

	check := func(name string, enabled bool, ok func() bool) {
		switch {
		case !enabled:
			body[name] = "disabled"
		case ok():
			body[name] = "connected"
		default:
			body[name] = "unavailable"
			ready = false
		}
	}

	check(h.storeName, h.storePing != nil, func() bool { return h.storePing(ctx) == nil })
	check("redis", h.redisClient != nil, func() bool { return h.redisClient.Ping(ctx).Err() == nil })
	check("rabbitmq", h.amqpConn != nil, func() bool { return !h.amqpConn.IsClosed() })
	check("elasticsearch", h.searchPing != nil, func() bool { return h.searchPing(ctx) == nil })

	if !ready {
		body["status"] = "error"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
