package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/importer"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/metadata"
	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
)

type SourceHandler struct {
	repo      *repository.SourceRepository
	extractor *metadata.Extractor
	logger    logger.Logger
}

func NewSourceHandler(repo *repository.SourceRepository, extractor *metadata.Extractor, log logger.Logger) *SourceHandler {
	return &SourceHandler{
		repo:      repo,
		extractor: extractor,
		logger:    log,
	}
}

func (h *SourceHandler) Create(c *gin.Context) {
	var source models.Source
	if err := c.ShouldBindJSON(&source); err != nil {
		h.logger.Debug("Invalid request body",
			logger.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if !validSourceURL(source.URL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be a valid http(s) URL"})
		return
	}

	if err := h.repo.Create(c.Request.Context(), &source); err != nil {
		h.logger.Error("Failed to create source",
			logger.String("source_url", source.URL),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create source"})
		return
	}

	h.logger.Info("Source created",
		logger.String("source_id", source.ID),
		logger.String("source_url", source.URL),
	)

	c.JSON(http.StatusCreated, source)
}

func (h *SourceHandler) List(c *gin.Context) {
	sources, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list sources",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sources"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *SourceHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}
		h.logger.Error("Failed to delete source",
			logger.String("source_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete source"})
		return
	}

	h.logger.Info("Source deleted",
		logger.String("source_id", id),
	)

	c.JSON(http.StatusNoContent, nil)
}

// Import accepts an uploaded .xlsx of sources and bulk-upserts the
// valid rows. Row-level validation errors come back alongside the
// counts so the operator can fix the sheet.
func (h *SourceHandler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload required", "details": err.Error()})
		return
	}
	defer file.Close()

	rows, importErrors := importer.ParseExcelFile(file)
	if len(rows) == 0 && len(importErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "no valid rows in spreadsheet",
			"errors": importErrors,
		})
		return
	}

	sources := make([]*models.Source, 0, len(rows))
	for _, row := range rows {
		sources = append(sources, importer.ToSource(row))
	}

	created, updated, err := h.repo.UpsertSourcesTx(c.Request.Context(), sources)
	if err != nil {
		h.logger.Error("Failed to import sources",
			logger.Int("row_count", len(rows)),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import sources"})
		return
	}

	h.logger.Info("Sources imported",
		logger.Int("created", created),
		logger.Int("updated", updated),
		logger.Int("errors", len(importErrors)),
	)

	c.JSON(http.StatusOK, gin.H{
		"created": created,
		"updated": updated,
		"errors":  importErrors,
	})
}

// Metadata suggests a display name for a URL the operator is adding.
func (h *SourceHandler) Metadata(c *gin.Context) {
	target := c.Query("url")
	if !validSourceURL(target) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter must be a valid http(s) URL"})
		return
	}

	suggestion, err := h.extractor.Extract(c.Request.Context(), target)
	if err != nil {
		h.logger.Warn("Metadata extraction failed",
			logger.String("url", target),
			logger.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch URL metadata"})
		return
	}

	c.JSON(http.StatusOK, suggestion)
}

func validSourceURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
