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

type BrandContextRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewBrandContextRepository(db *sql.DB, log logger.Logger) *BrandContextRepository {
	return &BrandContextRepository{
		db:     db,
		logger: log,
	}
}

// Latest returns the most recently updated brand context, or nil when
// none has been saved yet.
func (r *BrandContextRepository) Latest(ctx context.Context) (*models.BrandContext, error) {
	var bc models.BrandContext

	query := `
		SELECT id, instructions, updated_at
		FROM brand_contexts
		ORDER BY updated_at DESC
		LIMIT 1
	`

	err := r.db.QueryRowContext(ctx, query).Scan(&bc.ID, &bc.Instructions, &bc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query brand context: %w", err)
	}

	return &bc, nil
}

// Upsert updates the current brand context if one exists, otherwise
// inserts the first row. Repeated saves never accumulate rows.
func (r *BrandContextRepository) Upsert(ctx context.Context, instructions string) (*models.BrandContext, error) {
	existing, err := r.Latest(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if existing != nil {
		query := `UPDATE brand_contexts SET instructions = $2, updated_at = $3 WHERE id = $1`
		if _, execErr := r.db.ExecContext(ctx, query, existing.ID, instructions, now); execErr != nil {
			return nil, fmt.Errorf("update brand context: %w", execErr)
		}
		existing.Instructions = instructions
		existing.UpdatedAt = now
		return existing, nil
	}

	bc := &models.BrandContext{
		ID:           uuid.New().String(),
		Instructions: instructions,
		UpdatedAt:    now,
	}

	query := `INSERT INTO brand_contexts (id, instructions, updated_at) VALUES ($1, $2, $3)`
	if _, execErr := r.db.ExecContext(ctx, query, bc.ID, bc.Instructions, bc.UpdatedAt); execErr != nil {
		return nil, fmt.Errorf("insert brand context: %w", execErr)
	}

	return bc, nil
}
