package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
	"github.com/northbrief/curator/internal/testhelpers"
)

func newScrapeJobRepo(t *testing.T) (*repository.ScrapeJobRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewScrapeJobRepository(db, testhelpers.NewTestLogger()), mock
}

func TestScrapeJobRepository_Create_AssignsID(t *testing.T) {
	repo, mock := newScrapeJobRepo(t)

	mock.ExpectExec("INSERT INTO scrape_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ScrapeJob{
		JobID:  "remote-1",
		URLs:   models.StringArray{"https://news.example"},
		Status: models.JobScraping,
	}
	require.NoError(t, repo.Create(context.Background(), job))

	assert.NotEmpty(t, job.ID)
	assert.False(t, job.StartedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScrapeJobRepository_UpdateStatus_SetsCompletionFields(t *testing.T) {
	repo, mock := newScrapeJobRepo(t)

	completedAt := time.Now()
	total, scraped := 5, 5
	mock.ExpectExec("UPDATE scrape_jobs").
		WithArgs("job-1", models.JobCompleted, completedAt, total, scraped, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "job-1", models.JobCompleted, repository.StatusUpdate{
		CompletedAt:  &completedAt,
		TotalPages:   &total,
		PagesScraped: &scraped,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScrapeJobRepository_UpdateStatus_NotFound(t *testing.T) {
	repo, mock := newScrapeJobRepo(t)

	mock.ExpectExec("UPDATE scrape_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "ghost", models.JobFailed, repository.StatusUpdate{})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestScrapeJobRepository_GetByID_RoundTripsURLs(t *testing.T) {
	repo, mock := newScrapeJobRepo(t)

	columns := []string{
		"id", "job_id", "urls", "status", "started_at",
		"completed_at", "total_pages", "pages_scraped", "error_message",
	}
	mock.ExpectQuery(`SELECT (.+) FROM scrape_jobs WHERE id = \$1`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"job-1", "remote-1", []byte(`["https://a.example","https://b.example"]`),
			"scraping", time.Now(), nil, nil, nil, nil,
		))

	job, err := repo.GetByID(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, models.StringArray{"https://a.example", "https://b.example"}, job.URLs)
	assert.True(t, job.Status.InFlight())
}

func TestScrapeJobRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newScrapeJobRepo(t)

	mock.ExpectExec("DELETE FROM scrape_jobs").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}
