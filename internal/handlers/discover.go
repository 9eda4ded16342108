package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/discovery"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/repository"
)

// Discoverer runs one discovery batch end to end.
type Discoverer interface {
	Run(ctx context.Context, req discovery.Request) (*discovery.Result, error)
}

type DiscoveryHandler struct {
	pipeline Discoverer
	sources  *repository.SourceRepository
	brand    *repository.BrandContextRepository
	logger   logger.Logger
}

func NewDiscoveryHandler(pipeline Discoverer, sources *repository.SourceRepository, brand *repository.BrandContextRepository, log logger.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		pipeline: pipeline,
		sources:  sources,
		brand:    brand,
		logger:   log,
	}
}

type discoverRequest struct {
	URLs              []string `json:"urls"`
	SourceIDs         []string `json:"source_ids"`
	DateRange         string   `json:"date_range"`
	BrandInstructions string   `json:"brand_instructions"`
}

// Discover runs discovery over the given URLs and source ids. The
// request blocks while the remote batch job runs, up to the polling
// ceiling.
func (h *DiscoveryHandler) Discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	urls, err := h.resolveURLs(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(urls) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one url or source_id is required"})
		return
	}
	for _, u := range urls {
		if !validSourceURL(u) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url: " + u})
			return
		}
	}

	instructions := req.BrandInstructions
	if instructions == "" {
		instructions = h.storedBrandInstructions(c.Request.Context())
	}

	result, err := h.pipeline.Run(c.Request.Context(), discovery.Request{
		URLs:              urls,
		DateRange:         req.DateRange,
		BrandInstructions: instructions,
	})
	if err != nil {
		h.logger.Error("Discovery run failed",
			logger.Int("url_count", len(urls)),
			logger.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Discovery failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// resolveURLs merges explicit URLs with the URLs of referenced sources.
func (h *DiscoveryHandler) resolveURLs(ctx context.Context, req discoverRequest) ([]string, error) {
	urls := make([]string, 0, len(req.URLs)+len(req.SourceIDs))
	seen := make(map[string]bool)

	for _, u := range req.URLs {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, id := range req.SourceIDs {
		source, err := h.sources.GetByID(ctx, id)
		if err != nil {
			return nil, errUnknownSource(id, err)
		}
		if !seen[source.URL] {
			seen[source.URL] = true
			urls = append(urls, source.URL)
		}
	}

	return urls, nil
}

func (h *DiscoveryHandler) storedBrandInstructions(ctx context.Context) string {
	brand, err := h.brand.Latest(ctx)
	if err != nil {
		h.logger.Warn("Failed to load brand context for discovery",
			logger.Error(err),
		)
		return ""
	}
	if brand == nil {
		return ""
	}
	return brand.Instructions
}

type unknownSourceError struct {
	id  string
	err error
}

func (e *unknownSourceError) Error() string { return "unknown source: " + e.id }
func (e *unknownSourceError) Unwrap() error { return e.err }

func errUnknownSource(id string, err error) error {
	return &unknownSourceError{id: id, err: err}
}
