package models

import "time"

// BrandContext holds the operator's brand instructions used for
// relevance scoring during discovery. At most one row is logically
// current, selected by most-recent UpdatedAt; saves are upserts.
type BrandContext struct {
	ID           string    `json:"id" db:"id"`
	Instructions string    `json:"instructions" db:"instructions"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
