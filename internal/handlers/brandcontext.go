package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/repository"
)

type BrandContextHandler struct {
	repo   *repository.BrandContextRepository
	logger logger.Logger
}

func NewBrandContextHandler(repo *repository.BrandContextRepository, log logger.Logger) *BrandContextHandler {
	return &BrandContextHandler{
		repo:   repo,
		logger: log,
	}
}

func (h *BrandContextHandler) Get(c *gin.Context) {
	ctx, err := h.repo.Latest(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load brand context",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load brand context"})
		return
	}
	if ctx == nil {
		c.JSON(http.StatusOK, gin.H{"brand_context": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"brand_context": ctx})
}

type brandContextRequest struct {
	Instructions string `json:"instructions" binding:"required"`
}

func (h *BrandContextHandler) Save(c *gin.Context) {
	var req brandContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, err := h.repo.Upsert(c.Request.Context(), req.Instructions)
	if err != nil {
		h.logger.Error("Failed to save brand context",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save brand context"})
		return
	}

	h.logger.Info("Brand context saved",
		logger.String("brand_context_id", ctx.ID),
	)

	c.JSON(http.StatusOK, gin.H{"brand_context": ctx})
}
