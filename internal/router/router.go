package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/flicky/printmarket/internal/handler"
	"github.com/flicky/printmarket/internal/middleware"
	"github.com/flicky/printmarket/internal/validation"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Reel    *handler.ReelHandler
	Health  *handler.HealthHandler
}

// New builds the HTTP surface under /api plus the health probes.
func New(h Handlers, jwtSecret string, log *slog.Logger) (*gin.Engine, error) {
	if err := validation.RegisterGin(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	r.GET("/healthz", h.Health.Healthz)
	r.GET("/readyz", h.Health.Readyz)

	authRequired := middleware.AuthMiddleware(jwtSecret)
	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		products := api.Group("/products")
		products.GET("", h.Product.List)
		products.GET("/featured", h.Product.Featured)
		products.GET("/search", h.Product.Search)
		products.GET("/seller/:id", h.Product.ListBySeller)
		products.GET("/:id", h.Product.GetByID)
		products.POST("", authRequired, middleware.SellerOnly(), h.Product.Create)
		products.PUT("/:id", authRequired, h.Product.Update)
		products.POST("/:id/reviews", authRequired, h.Product.AddReview)

		orders := api.Group("/orders", authRequired)
		orders.GET("", h.Order.ListOrders)
		orders.POST("", h.Order.CreateOrder)
		orders.GET("/seller", middleware.SellerOnly(), h.Order.ListSellerOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PUT("/:id/status", h.Order.UpdateStatus)

		reels := api.Group("/reels")
		reels.GET("", h.Reel.List)
		reels.GET("/:id", h.Reel.GetByID)
		reels.POST("", authRequired, h.Reel.Create)
		reels.PUT("/:id", authRequired, h.Reel.Update)
		reels.POST("/:id/like", authRequired, h.Reel.ToggleLike)
		reels.POST("/:id/comments", authRequired, h.Reel.AddComment)
	}

	return r, nil
}
