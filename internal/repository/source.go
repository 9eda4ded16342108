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

type SourceRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSourceRepository(db *sql.DB, log logger.Logger) *SourceRepository {
	return &SourceRepository{
		db:     db,
		logger: log,
	}
}

func (r *SourceRepository) Create(ctx context.Context, source *models.Source) error {
	source.ID = uuid.New().String()
	source.CreatedAt = time.Now()

	query := `
		INSERT INTO sources (id, url, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		source.ID,
		source.URL,
		source.Name,
		source.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}

	return nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*models.Source, error) {
	var source models.Source

	query := `
		SELECT id, url, name, created_at
		FROM sources
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&source.ID,
		&source.URL,
		&source.Name,
		&source.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query source: %w", err)
	}

	return &source, nil
}

func (r *SourceRepository) List(ctx context.Context) ([]models.Source, error) {
	query := `
		SELECT id, url, name, created_at
		FROM sources
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := make([]models.Source, 0)
	for rows.Next() {
		var source models.Source
		if scanErr := rows.Scan(&source.ID, &source.URL, &source.Name, &source.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("scan source: %w", scanErr)
		}
		sources = append(sources, source)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate sources: %w", rowsErr)
	}

	return sources, nil
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
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

// UpsertSourcesTx upserts multiple sources in a single transaction,
// keyed by URL. Used by the bulk importer. Returns created and updated
// counts; any failure rolls back the whole batch.
func (r *SourceRepository) UpsertSourcesTx(ctx context.Context, sources []*models.Source) (created, updated int, err error) {
	if len(sources) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("failed to rollback transaction", logger.Error(rbErr))
			}
		}
	}()

	// Source URLs carry no unique constraint, so the importer updates
	// the first match by URL and inserts otherwise.
	for _, source := range sources {
		result, updateErr := tx.ExecContext(ctx,
			`UPDATE sources SET name = $2
			 WHERE id = (SELECT id FROM sources WHERE url = $1 ORDER BY created_at LIMIT 1)`,
			source.URL, source.Name,
		)
		if updateErr != nil {
			err = fmt.Errorf("update source %q: %w", source.URL, updateErr)
			return 0, 0, err
		}

		rowsAffected, raErr := result.RowsAffected()
		if raErr != nil {
			err = fmt.Errorf("get rows affected: %w", raErr)
			return 0, 0, err
		}
		if rowsAffected > 0 {
			updated++
			continue
		}

		if source.ID == "" {
			source.ID = uuid.New().String()
		}
		source.CreatedAt = time.Now()
		if _, insertErr := tx.ExecContext(ctx,
			`INSERT INTO sources (id, url, name, created_at) VALUES ($1, $2, $3, $4)`,
			source.ID, source.URL, source.Name, source.CreatedAt,
		); insertErr != nil {
			err = fmt.Errorf("insert source %q: %w", source.URL, insertErr)
			return 0, 0, err
		}
		created++
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = fmt.Errorf("commit transaction: %w", commitErr)
		return 0, 0, err
	}

	return created, updated, nil
}
