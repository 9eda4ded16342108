// Package structuring promotes discovered article stubs into
// publishable records by re-scraping the article page and asking a
// completion model for a structured rendition.
package structuring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/northbrief/curator/internal/events"
	"github.com/northbrief/curator/internal/llm"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/scrape"
)

// promptContentLimit bounds how much scraped markdown the structuring
// prompt carries.
const promptContentLimit = 20000

// Scraper is the slice of the scrape API the pipeline needs.
type Scraper interface {
	ScrapeURL(ctx context.Context, url string) (*scrape.Page, error)
}

// Completer issues one chat completion call.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// ArticleStore is the slice of the article repository the pipeline needs.
type ArticleStore interface {
	GetByID(ctx context.Context, id string) (*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
}

// Pipeline structures one article at a time.
type Pipeline struct {
	scraper   Scraper
	completer Completer
	articles  ArticleStore
	events    *events.Publisher
	log       logger.Logger
}

// NewPipeline creates a structuring pipeline.
func NewPipeline(scraper Scraper, completer Completer, articles ArticleStore, publisher *events.Publisher, log logger.Logger) *Pipeline {
	return &Pipeline{
		scraper:   scraper,
		completer: completer,
		articles:  articles,
		events:    publisher,
		log:       log,
	}
}

// Structure re-scrapes the article's URL fresh, structures the content
// and persists the merged result. Articles whose page no longer holds
// a usable article are marked structured-but-unselected so they are
// not retried forever.
func (p *Pipeline) Structure(ctx context.Context, articleID string) (*models.Article, error) {
	article, err := p.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}

	page, err := p.scraper.ScrapeURL(ctx, article.URL)
	if err != nil {
		return nil, fmt.Errorf("scrape article page: %w", err)
	}

	structured, err := p.structureWithLLM(ctx, article, page)
	if err != nil {
		return nil, fmt.Errorf("structure article: %w", err)
	}

	merged := merge(*article, *structured)

	if err := p.articles.Update(ctx, &merged); err != nil {
		return nil, fmt.Errorf("persist structured article: %w", err)
	}

	p.log.Info("Article structured",
		logger.String("article_id", merged.ID),
		logger.Bool("valid", structured.HasValidArticle),
	)

	p.events.PublishAsync(events.Event{
		EventType: events.EventArticleStructured,
		EntityID:  merged.ID,
	})

	return &merged, nil
}

func (p *Pipeline) structureWithLLM(ctx context.Context, article *models.Article, page *scrape.Page) (*structuredArticle, error) {
	content := page.Markdown
	if len(content) > promptContentLimit {
		content = content[:promptContentLimit]
	}

	out, err := p.completer.Complete(ctx, llm.Request{
		System: structureSystemPrompt,
		User:   fmt.Sprintf("Article URL: %s\n\n%s", article.URL, content),
		Schema: &llm.Schema{
			Name:   "article_structure",
			Schema: articleStructureSchema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("structure completion: %w", err)
	}

	var structured structuredArticle
	if err := json.Unmarshal([]byte(out), &structured); err != nil {
		return nil, fmt.Errorf("parse structure output: %w", err)
	}
	return &structured, nil
}
