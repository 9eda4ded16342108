package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
	"github.com/northbrief/curator/internal/testhelpers"
)

func newSourceRepo(t *testing.T) (*repository.SourceRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewSourceRepository(db, testhelpers.NewTestLogger()), mock
}

func namePtr(name string) *string { return &name }

func TestSourceRepository_Create_AssignsID(t *testing.T) {
	repo, mock := newSourceRepo(t)

	mock.ExpectExec("INSERT INTO sources").
		WillReturnResult(sqlmock.NewResult(0, 1))

	source := &models.Source{URL: "https://news.example", Name: namePtr("Example")}
	require.NoError(t, repo.Create(context.Background(), source))

	assert.NotEmpty(t, source.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newSourceRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM sources WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "name", "created_at"}))

	_, err := repo.GetByID(context.Background(), "ghost")

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSourceRepository_UpsertSourcesTx_CountsCreatedAndUpdated(t *testing.T) {
	repo, mock := newSourceRepo(t)

	mock.ExpectBegin()
	// first source matches by URL and updates in place
	mock.ExpectExec("UPDATE sources SET name").
		WithArgs("https://known.example", namePtr("Known")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// second source misses and inserts
	mock.ExpectExec("UPDATE sources SET name").
		WithArgs("https://new.example", namePtr("New")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sources").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, updated, err := repo.UpsertSourcesTx(context.Background(), []*models.Source{
		{URL: "https://known.example", Name: namePtr("Known")},
		{URL: "https://new.example", Name: namePtr("New")},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepository_UpsertSourcesTx_EmptyBatch(t *testing.T) {
	repo, mock := newSourceRepo(t)

	created, updated, err := repo.UpsertSourcesTx(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Zero(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepository_UpsertSourcesTx_RollsBackWholeBatch(t *testing.T) {
	repo, mock := newSourceRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE sources SET name").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO sources").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	created, updated, err := repo.UpsertSourcesTx(context.Background(), []*models.Source{
		{URL: "https://new.example", Name: namePtr("New")},
	})

	assert.ErrorContains(t, err, "insert source")
	assert.Zero(t, created)
	assert.Zero(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepository_List(t *testing.T) {
	repo, mock := newSourceRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM sources`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "name", "created_at"}).
			AddRow("src-1", "https://a.example", "A", time.Now()).
			AddRow("src-2", "https://b.example", nil, time.Now()))

	sources, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Nil(t, sources[1].Name)
}
