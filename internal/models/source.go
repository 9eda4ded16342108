// Package models defines the persisted entities of the curator service.
package models

import "time"

// Source is a news-source URL registered by the operator. Sources are
// created and deleted, never mutated.
type Source struct {
	ID        string    `json:"id" db:"id"`
	URL       string    `json:"url" binding:"required" db:"url"`
	Name      *string   `json:"name,omitempty" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
