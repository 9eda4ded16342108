package structuring

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/northbrief/curator/internal/models"
)

// articleStructureSchema constrains structuring output. Breadcrumb and
// category help the model locate the article body on listing-heavy
// pages even though only the core fields are persisted.
var articleStructureSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"title": {"type": "string"},
		"summary": {"type": "string"},
		"fullContent": {"type": "string"},
		"url": {"type": "string"},
		"publishedAt": {"type": "string"},
		"source": {"type": "string"},
		"breadcrumb": {"type": "string"},
		"category": {"type": "string"},
		"hasValidArticle": {"type": "boolean"}
	},
	"required": ["title", "summary", "fullContent", "url", "publishedAt", "source", "breadcrumb", "category", "hasValidArticle"],
	"additionalProperties": false
}`)

const structureSystemPrompt = `You are a news curation assistant. You are given the markdown of a single article page. Extract the article into structured data: its title, a 200-400 word summary, the full article text, its canonical URL, the publication date, and the publishing source. Set hasValidArticle to false when the page does not contain a readable article (paywall shell, error page, bare listing).`

// structuredArticle is the model's rendition of one article page.
type structuredArticle struct {
	Title           string `json:"title"`
	Summary         string `json:"summary"`
	FullContent     string `json:"fullContent"`
	URL             string `json:"url"`
	PublishedAt     string `json:"publishedAt"`
	Source          string `json:"source"`
	Breadcrumb      string `json:"breadcrumb"`
	Category        string `json:"category"`
	HasValidArticle bool   `json:"hasValidArticle"`
}

// merge folds the model's output into the stored article. Field
// precedence is model value, else prior value. The brand score is
// assigned at discovery time and is never touched here. An invalid
// page still comes back structured so it is not retried forever, but
// it is deselected and given the sentinel summary.
func merge(prior models.Article, s structuredArticle) models.Article {
	merged := prior
	merged.Structured = true

	if !s.HasValidArticle {
		merged.IsSelected = false
		merged.Summary = models.InvalidArticleSummary
		return merged
	}

	merged.Title = firstNonEmpty(s.Title, prior.Title)
	merged.Summary = firstNonEmpty(s.Summary, prior.Summary)
	merged.FullContent = firstNonEmpty(s.FullContent, prior.FullContent)
	// The model's canonical URL replaces the listing URL it was
	// discovered under. A collision with another article's URL surfaces
	// through the unique index when the update is persisted.
	merged.URL = firstNonEmpty(s.URL, prior.URL)
	merged.SourceHost = firstNonEmpty(s.Source, prior.SourceHost)

	if published := parseTimestamp(s.PublishedAt); published != nil {
		merged.PublishedAt = published
	}

	// A successfully structured article is always pulled into the
	// selection for the next newsletter.
	merged.IsSelected = true

	return merged
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
