package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/dates"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
)

// Structurer promotes one article stub into a structured record.
type Structurer interface {
	Structure(ctx context.Context, articleID string) (*models.Article, error)
}

type ArticleHandler struct {
	repo       *repository.ArticleRepository
	structurer Structurer
	logger     logger.Logger
}

func NewArticleHandler(repo *repository.ArticleRepository, structurer Structurer, log logger.Logger) *ArticleHandler {
	return &ArticleHandler{
		repo:       repo,
		structurer: structurer,
		logger:     log,
	}
}

// articleView is an article plus a best-effort extracted date for
// items that have no authoritative publish date yet.
type articleView struct {
	models.Article
	ExtractedDate *time.Time `json:"extracted_date,omitempty"`
}

func (h *ArticleHandler) List(c *gin.Context) {
	articles, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list articles",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list articles"})
		return
	}

	now := time.Now()
	views := make([]articleView, 0, len(articles))
	for _, article := range articles {
		view := articleView{Article: article, ExtractedDate: article.PublishedAt}
		if view.ExtractedDate == nil {
			if extracted, ok := dates.Extract(article.FullContent, now); ok {
				view.ExtractedDate = &extracted
			}
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": views,
		"count":    len(views),
	})
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		h.logger.Error("Failed to delete article",
			logger.String("article_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete article"})
		return
	}

	h.logger.Info("Article deleted",
		logger.String("article_id", id),
	)

	c.JSON(http.StatusNoContent, nil)
}

type selectionRequest struct {
	ArticleIDs []string `json:"article_ids" binding:"required"`
}

// SaveSelection replaces the current selection with the given set.
func (h *ArticleHandler) SaveSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.repo.SetSelection(c.Request.Context(), req.ArticleIDs); err != nil {
		h.logger.Error("Failed to save selection",
			logger.Int("article_count", len(req.ArticleIDs)),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save selection"})
		return
	}

	h.logger.Info("Selection saved",
		logger.Int("article_count", len(req.ArticleIDs)),
	)

	c.JSON(http.StatusOK, gin.H{"selected": len(req.ArticleIDs)})
}

// Structure runs the structuring pipeline for one article.
func (h *ArticleHandler) Structure(c *gin.Context) {
	id := c.Param("id")

	article, err := h.structurer.Structure(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		h.logger.Error("Failed to structure article",
			logger.String("article_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to structure article"})
		return
	}

	c.JSON(http.StatusOK, article)
}
