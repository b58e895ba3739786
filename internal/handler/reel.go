package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/printmarket/internal/middleware"
	"github.com/flicky/printmarket/internal/service"
	"github.com/flicky/printmarket/pkg/dto"
)

type ReelHandler struct {
	reelService *service.ReelService
}

func NewReelHandler(reelService *service.ReelService) *ReelHandler {
	return &ReelHandler{reelService: reelService}
}

func (h *ReelHandler) List(c *gin.Context) {
	reels, err := h.reelService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reels)
}

func (h *ReelHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "reel")
	if !ok {
		return
	}
	reel, err := h.reelService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reel)
}

func (h *ReelHandler) Create(c *gin.Context) {
	var req dto.CreateReelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reel, err := h.reelService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reel)
}

func (h *ReelHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "reel")
	if !ok {
		return
	}
	var req dto.UpdateReelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reel, err := h.reelService.Update(c.Request.Context(), id, middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reel)
}

func (h *ReelHandler) ToggleLike(c *gin.Context) {
	id, ok := parseIDParam(c, "reel")
	if !ok {
		return
	}
	reel, liked, err := h.reelService.ToggleLike(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LikeResponse{Liked: liked, Likes: len(reel.Likes), Reel: *reel})
}

func (h *ReelHandler) AddComment(c *gin.Context) {
	id, ok := parseIDParam(c, "reel")
	if !ok {
		return
	}
	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reel, err := h.reelService.AddComment(c.Request.Context(), id, middleware.GetUserID(c), req.Body())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reel)
}
