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

type NewsletterRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewNewsletterRepository(db *sql.DB, log logger.Logger) *NewsletterRepository {
	return &NewsletterRepository{
		db:     db,
		logger: log,
	}
}

// Create persists the newsletter and its ordered article links in one
// transaction. Link position records the selection order at save time.
func (r *NewsletterRepository) Create(ctx context.Context, newsletter *models.Newsletter) error {
	newsletter.ID = uuid.New().String()
	if newsletter.GeneratedAt.IsZero() {
		newsletter.GeneratedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("failed to rollback transaction", logger.Error(rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO newsletters (id, title, content, generated_at) VALUES ($1, $2, $3, $4)`,
		newsletter.ID, newsletter.Title, newsletter.Content, newsletter.GeneratedAt,
	); err != nil {
		err = fmt.Errorf("insert newsletter: %w", err)
		return err
	}

	for position, articleID := range newsletter.ArticleIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO newsletter_articles (newsletter_id, article_id, position) VALUES ($1, $2, $3)`,
			newsletter.ID, articleID, position,
		); err != nil {
			err = fmt.Errorf("insert newsletter article link: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit transaction: %w", err)
		return err
	}

	return nil
}

func (r *NewsletterRepository) GetByID(ctx context.Context, id string) (*models.Newsletter, error) {
	var newsletter models.Newsletter

	query := `SELECT id, title, content, generated_at FROM newsletters WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&newsletter.ID,
		&newsletter.Title,
		&newsletter.Content,
		&newsletter.GeneratedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query newsletter: %w", err)
	}

	articleIDs, err := r.articleIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	newsletter.ArticleIDs = articleIDs

	return &newsletter, nil
}

func (r *NewsletterRepository) List(ctx context.Context) ([]models.Newsletter, error) {
	query := `SELECT id, title, content, generated_at FROM newsletters ORDER BY generated_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query newsletters: %w", err)
	}
	defer rows.Close()

	newsletters := make([]models.Newsletter, 0)
	for rows.Next() {
		var newsletter models.Newsletter
		if scanErr := rows.Scan(
			&newsletter.ID,
			&newsletter.Title,
			&newsletter.Content,
			&newsletter.GeneratedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan newsletter: %w", scanErr)
		}
		newsletters = append(newsletters, newsletter)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate newsletters: %w", rowsErr)
	}

	for i := range newsletters {
		articleIDs, idsErr := r.articleIDs(ctx, newsletters[i].ID)
		if idsErr != nil {
			return nil, idsErr
		}
		newsletters[i].ArticleIDs = articleIDs
	}

	return newsletters, nil
}

// Recent returns up to limit newsletters, newest first. The composer
// uses them as style context.
func (r *NewsletterRepository) Recent(ctx context.Context, limit int) ([]models.Newsletter, error) {
	query := `SELECT id, title, content, generated_at FROM newsletters ORDER BY generated_at DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent newsletters: %w", err)
	}
	defer rows.Close()

	newsletters := make([]models.Newsletter, 0, limit)
	for rows.Next() {
		var newsletter models.Newsletter
		if scanErr := rows.Scan(
			&newsletter.ID,
			&newsletter.Title,
			&newsletter.Content,
			&newsletter.GeneratedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("scan newsletter: %w", scanErr)
		}
		newsletters = append(newsletters, newsletter)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate newsletters: %w", rowsErr)
	}

	return newsletters, nil
}

// Delete removes the newsletter and its article links. The schema's
// ON DELETE CASCADE backs up the explicit link delete.
func (r *NewsletterRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("failed to rollback transaction", logger.Error(rbErr))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM newsletter_articles WHERE newsletter_id = $1`, id,
	); err != nil {
		err = fmt.Errorf("delete newsletter article links: %w", err)
		return err
	}

	var result sql.Result
	if result, err = tx.ExecContext(ctx, `DELETE FROM newsletters WHERE id = $1`, id); err != nil {
		err = fmt.Errorf("delete newsletter: %w", err)
		return err
	}

	rowsAffected, raErr := result.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("get rows affected: %w", raErr)
		return err
	}
	if rowsAffected == 0 {
		err = ErrNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit transaction: %w", err)
		return err
	}

	return nil
}

func (r *NewsletterRepository) articleIDs(ctx context.Context, newsletterID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id FROM newsletter_articles WHERE newsletter_id = $1 ORDER BY position`,
		newsletterID,
	)
	if err != nil {
		return nil, fmt.Errorf("query newsletter articles: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("scan newsletter article: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate newsletter articles: %w", rowsErr)
	}

	return ids, nil
}
