package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/composer"
	"github.com/northbrief/curator/internal/events"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
)

// Drafter generates newsletter content from selected articles.
type Drafter interface {
	Generate(ctx context.Context, articleIDs []string) (string, error)
}

type NewsletterHandler struct {
	repo    *repository.NewsletterRepository
	drafter Drafter
	events  *events.Publisher
	logger  logger.Logger
}

func NewNewsletterHandler(repo *repository.NewsletterRepository, drafter Drafter, publisher *events.Publisher, log logger.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		repo:    repo,
		drafter: drafter,
		events:  publisher,
		logger:  log,
	}
}

type generateRequest struct {
	ArticleIDs []string `json:"article_ids" binding:"required,min=1"`
}

// Generate drafts newsletter content without persisting anything.
func (h *NewsletterHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	content, err := h.drafter.Generate(c.Request.Context(), req.ArticleIDs)
	if err != nil {
		if errors.Is(err, composer.ErrNoArticles) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No articles found for the given ids"})
			return
		}
		h.logger.Error("Failed to generate newsletter",
			logger.Int("article_count", len(req.ArticleIDs)),
			logger.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate newsletter"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}

type saveNewsletterRequest struct {
	Title      *string  `json:"title"`
	Content    string   `json:"content" binding:"required"`
	ArticleIDs []string `json:"article_ids" binding:"required,min=1"`
}

// Save persists a newsletter with its articles in the given order.
func (h *NewsletterHandler) Save(c *gin.Context) {
	var req saveNewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	newsletter := models.Newsletter{
		Title:      req.Title,
		Content:    req.Content,
		ArticleIDs: req.ArticleIDs,
	}

	if err := h.repo.Create(c.Request.Context(), &newsletter); err != nil {
		h.logger.Error("Failed to save newsletter",
			logger.Int("article_count", len(req.ArticleIDs)),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save newsletter"})
		return
	}

	h.logger.Info("Newsletter saved",
		logger.String("newsletter_id", newsletter.ID),
		logger.Int("article_count", len(req.ArticleIDs)),
	)

	h.events.PublishAsync(events.Event{
		EventType: events.EventNewsletterSaved,
		EntityID:  newsletter.ID,
	})

	c.JSON(http.StatusCreated, newsletter)
}

func (h *NewsletterHandler) List(c *gin.Context) {
	newsletters, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list newsletters",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list newsletters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"newsletters": newsletters,
		"count":       len(newsletters),
	})
}

func (h *NewsletterHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Newsletter not found"})
			return
		}
		h.logger.Error("Failed to delete newsletter",
			logger.String("newsletter_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete newsletter"})
		return
	}

	h.logger.Info("Newsletter deleted",
		logger.String("newsletter_id", id),
	)

	c.JSON(http.StatusNoContent, nil)
}
