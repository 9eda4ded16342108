package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
)

// BatchCanceller asks the scrape provider to stop a batch job.
type BatchCanceller interface {
	CancelBatch(ctx context.Context, jobID string) error
}

type ScrapeJobHandler struct {
	repo      *repository.ScrapeJobRepository
	canceller BatchCanceller
	logger    logger.Logger
}

func NewScrapeJobHandler(repo *repository.ScrapeJobRepository, canceller BatchCanceller, log logger.Logger) *ScrapeJobHandler {
	return &ScrapeJobHandler{
		repo:      repo,
		canceller: canceller,
		logger:    log,
	}
}

func (h *ScrapeJobHandler) List(c *gin.Context) {
	jobs, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list scrape jobs",
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scrape jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// Cancel stops an in-flight job. The remote cancel is best-effort; the
// local row transitions to cancelled regardless.
func (h *ScrapeJobHandler) Cancel(c *gin.Context) {
	id := c.Param("id")

	job, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scrape job not found"})
			return
		}
		h.logger.Error("Failed to load scrape job",
			logger.String("job_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scrape job"})
		return
	}

	if !job.Status.InFlight() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scrape job is not cancellable", "status": job.Status})
		return
	}

	h.cancelRemote(c.Request.Context(), job)

	completedAt := time.Now().UTC()
	if err := h.repo.UpdateStatus(c.Request.Context(), job.ID, models.JobCancelled, repository.StatusUpdate{
		CompletedAt: &completedAt,
	}); err != nil {
		h.logger.Error("Failed to cancel scrape job",
			logger.String("job_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel scrape job"})
		return
	}

	h.logger.Info("Scrape job cancelled",
		logger.String("job_id", id),
	)

	c.JSON(http.StatusOK, gin.H{"status": models.JobCancelled})
}

// Delete removes a job record. Still-running jobs get a best-effort
// remote cancel first.
func (h *ScrapeJobHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	job, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Scrape job not found"})
			return
		}
		h.logger.Error("Failed to load scrape job",
			logger.String("job_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scrape job"})
		return
	}

	if job.Status.InFlight() {
		h.cancelRemote(c.Request.Context(), job)
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete scrape job",
			logger.String("job_id", id),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete scrape job"})
		return
	}

	h.logger.Info("Scrape job deleted",
		logger.String("job_id", id),
	)

	c.JSON(http.StatusNoContent, nil)
}

func (h *ScrapeJobHandler) cancelRemote(ctx context.Context, job *models.ScrapeJob) {
	if err := h.canceller.CancelBatch(ctx, job.JobID); err != nil {
		h.logger.Warn("Remote cancel failed, continuing locally",
			logger.String("job_id", job.ID),
			logger.String("remote_job_id", job.JobID),
			logger.Error(err),
		)
	}
}
