package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
)

type ScrapeJobRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewScrapeJobRepository(db *sql.DB, log logger.Logger) *ScrapeJobRepository {
	return &ScrapeJobRepository{
		db:     db,
		logger: log,
	}
}

const jobColumns = `id, job_id, urls, status, started_at, completed_at,
	total_pages, pages_scraped, error_message`

func (r *ScrapeJobRepository) Create(ctx context.Context, job *models.ScrapeJob) error {
	job.ID = uuid.New().String()
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}

	query := `
		INSERT INTO scrape_jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.JobID,
		job.URLs,
		job.Status,
		job.StartedAt,
		job.CompletedAt,
		job.TotalPages,
		job.PagesScraped,
		job.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert scrape job: %w", err)
	}

	return nil
}

func (r *ScrapeJobRepository) GetByID(ctx context.Context, id string) (*models.ScrapeJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scrape_jobs WHERE id = $1`

	job, err := scanScrapeJob(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query scrape job: %w", err)
	}

	return job, nil
}

func (r *ScrapeJobRepository) List(ctx context.Context) ([]models.ScrapeJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scrape_jobs ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scrape jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.ScrapeJob, 0)
	for rows.Next() {
		job, scanErr := scanScrapeJob(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan scrape job: %w", scanErr)
		}
		jobs = append(jobs, *job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate scrape jobs: %w", rowsErr)
	}

	return jobs, nil
}

// StatusUpdate carries the optional fields set alongside a status
// transition. Nil fields are left untouched.
type StatusUpdate struct {
	CompletedAt  *time.Time
	TotalPages   *int
	PagesScraped *int
	ErrorMessage *string
}

func (r *ScrapeJobRepository) UpdateStatus(ctx context.Context, id string, status models.JobStatus, update StatusUpdate) error {
	query := `
		UPDATE scrape_jobs
		SET status = $2,
		    completed_at = COALESCE($3, completed_at),
		    total_pages = COALESCE($4, total_pages),
		    pages_scraped = COALESCE($5, pages_scraped),
		    error_message = COALESCE($6, error_message)
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		id,
		status,
		update.CompletedAt,
		update.TotalPages,
		update.PagesScraped,
		update.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("update scrape job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *ScrapeJobRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scrape_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scrape job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanScrapeJob(row rowScanner) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	err := row.Scan(
		&job.ID,
		&job.JobID,
		&job.URLs,
		&job.Status,
		&job.StartedAt,
		&job.CompletedAt,
		&job.TotalPages,
		&job.PagesScraped,
		&job.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
