package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
)

// listLimit bounds article listings to the most recent items.
const listLimit = 50

type ArticleRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewArticleRepository(db *sql.DB, log logger.Logger) *ArticleRepository {
	return &ArticleRepository{
		db:     db,
		logger: log,
	}
}

const articleColumns = `id, title, summary, full_content, url, source_host,
	published_at, scraped_at, brand_score, is_selected, structured`

func (r *ArticleRepository) Create(ctx context.Context, article *models.Article) error {
	article.ID = uuid.New().String()
	if article.ScrapedAt.IsZero() {
		article.ScrapedAt = time.Now()
	}

	query := `
		INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		article.ID,
		article.Title,
		article.Summary,
		article.FullContent,
		article.URL,
		article.SourceHost,
		article.PublishedAt,
		article.ScrapedAt,
		article.BrandScore,
		article.IsSelected,
		article.Structured,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}

	return nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query article: %w", err)
	}

	return article, nil
}

// GetByURL is the dedup probe used by discovery. A nil article with a
// nil error means the URL is unknown.
func (r *ArticleRepository) GetByURL(ctx context.Context, url string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE url = $1 LIMIT 1`

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query article by url: %w", err)
	}

	return article, nil
}

func (r *ArticleRepository) List(ctx context.Context) ([]models.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		ORDER BY scraped_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, listLimit)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := make([]models.Article, 0)
	for rows.Next() {
		article, scanErr := scanArticle(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan article: %w", scanErr)
		}
		articles = append(articles, *article)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate articles: %w", rowsErr)
	}

	return articles, nil
}

// GetByIDs returns the named articles preserving the order of ids.
func (r *ArticleRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Article, error) {
	if len(ids) == 0 {
		return []models.Article{}, nil
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.StringArray(ids))
	if err != nil {
		return nil, fmt.Errorf("query articles by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]models.Article, len(ids))
	for rows.Next() {
		article, scanErr := scanArticle(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan article: %w", scanErr)
		}
		byID[article.ID] = *article
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate articles: %w", rowsErr)
	}

	ordered := make([]models.Article, 0, len(ids))
	for _, id := range ids {
		if article, ok := byID[id]; ok {
			ordered = append(ordered, article)
		}
	}
	return ordered, nil
}

func (r *ArticleRepository) Update(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles
		SET title = $2, summary = $3, full_content = $4, url = $5,
		    source_host = $6, published_at = $7, is_selected = $8, structured = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		article.ID,
		article.Title,
		article.Summary,
		article.FullContent,
		article.URL,
		article.SourceHost,
		article.PublishedAt,
		article.IsSelected,
		article.Structured,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
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

// SetSelection clears every selection flag, then selects the given ids.
func (r *ArticleRepository) SetSelection(ctx context.Context, ids []string) error {
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

	if _, err = tx.ExecContext(ctx, `UPDATE articles SET is_selected = FALSE`); err != nil {
		err = fmt.Errorf("clear selection: %w", err)
		return err
	}

	if len(ids) > 0 {
		if _, err = tx.ExecContext(ctx,
			`UPDATE articles SET is_selected = TRUE WHERE id = ANY($1)`,
			pq.StringArray(ids),
		); err != nil {
			err = fmt.Errorf("set selection: %w", err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit transaction: %w", err)
		return err
	}

	return nil
}

func (r *ArticleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Summary,
		&article.FullContent,
		&article.URL,
		&article.SourceHost,
		&article.PublishedAt,
		&article.ScrapedAt,
		&article.BrandScore,
		&article.IsSelected,
		&article.Structured,
	)
	if err != nil {
		return nil, err
	}
	return &article, nil
}
