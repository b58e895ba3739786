package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/printmarket/internal/middleware"
	"github.com/flicky/printmarket/internal/service"
	"github.com/flicky/printmarket/pkg/dto"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	setETag(c, order.Version)
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ListSellerOrders(c *gin.Context) {
	orders, err := h.orderService.ListForSeller(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	setETag(c, order.Version)
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order")
	if !ok {
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	version := ifMatchVersion(c)
	if version == 0 && req.Version != nil {
		version = *req.Version
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, middleware.GetUserID(c), req.Status, version)
	if err != nil {
		respondError(c, err)
		return
	}
	setETag(c, order.Version)
	c.JSON(http.StatusOK, order)
}
