package models

import "time"

// Newsletter is a saved newsletter draft together with the ordered set
// of articles it was generated from. Newsletters are immutable once
// saved; deleting one removes its article links.
type Newsletter struct {
	ID          string    `json:"id" db:"id"`
	Title       *string   `json:"title,omitempty" db:"title"`
	Content     string    `json:"content" db:"content"`
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
	// ArticleIDs preserves the selection order at save time.
	ArticleIDs []string `json:"article_ids,omitempty" db:"-"`
}
