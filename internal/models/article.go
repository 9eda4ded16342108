package models

import "time"

// Article is a discovered news article. It starts life as a stub
// (empty summary and content, structured=false) and is promoted to a
// publishable record by the structuring pipeline. URL is the natural
// dedup key: discovery never creates a second article for a known URL.
type Article struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Summary     string     `json:"summary" db:"summary"`
	FullContent string     `json:"full_content" db:"full_content"`
	URL         string     `json:"url" db:"url"`
	SourceHost  string     `json:"source_host" db:"source_host"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	ScrapedAt   time.Time  `json:"scraped_at" db:"scraped_at"`
	// BrandScore is 0-10 relevance to the operator's brand context,
	// assigned once at discovery time. Nil when no context was supplied.
	BrandScore *float64 `json:"brand_score,omitempty" db:"brand_score"`
	IsSelected bool     `json:"is_selected" db:"is_selected"`
	Structured bool     `json:"structured" db:"structured"`
}

// InvalidArticleSummary marks articles whose fresh content turned out
// not to contain a usable article. Such articles stay structured so
// they are not re-processed indefinitely.
const InvalidArticleSummary = "No valid article found in this content"
