// Package composer drafts newsletters from structured articles, using
// recent issues as style context.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/northbrief/curator/internal/llm"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
)

const (
	// styleContextIssues is how many prior newsletters are offered as
	// style context.
	styleContextIssues = 3

	// styleExcerptLimit bounds each prior issue's excerpt.
	styleExcerptLimit = 500
)

// ErrNoArticles is returned when none of the requested article ids
// resolve to stored articles.
var ErrNoArticles = errors.New("no articles found for newsletter")

// Completer issues one chat completion call.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// ArticleStore loads the selected articles by id, preserving order.
type ArticleStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Article, error)
}

// NewsletterStore loads recent issues for style context.
type NewsletterStore interface {
	Recent(ctx context.Context, limit int) ([]models.Newsletter, error)
}

// Composer turns a set of articles into a newsletter draft.
type Composer struct {
	completer   Completer
	articles    ArticleStore
	newsletters NewsletterStore
	log         logger.Logger
}

// New creates a composer.
func New(completer Completer, articles ArticleStore, newsletters NewsletterStore, log logger.Logger) *Composer {
	return &Composer{
		completer:   completer,
		articles:    articles,
		newsletters: newsletters,
		log:         log,
	}
}

const systemPrompt = `You are an expert newsletter writer. Write a complete newsletter issue from the articles provided.

Structure every issue as:
1. A strong opening hook that frames why this issue matters now.
2. One section per article stating its objective takeaway in plain language.
3. A clear attribution for every article: name the source and link the original URL.

Write in a confident, economical voice. Do not invent facts beyond the articles given.`

// Generate drafts a newsletter over the given articles. The returned
// content is the model's output, verbatim.
func (c *Composer) Generate(ctx context.Context, articleIDs []string) (string, error) {
	articles, err := c.articles.GetByIDs(ctx, articleIDs)
	if err != nil {
		return "", fmt.Errorf("load articles: %w", err)
	}
	if len(articles) == 0 {
		return "", ErrNoArticles
	}

	recent, err := c.newsletters.Recent(ctx, styleContextIssues)
	if err != nil {
		return "", fmt.Errorf("load recent newsletters: %w", err)
	}

	content, err := c.completer.Complete(ctx, llm.Request{
		System: systemPrompt,
		User:   userPrompt(articles, recent),
	})
	if err != nil {
		return "", fmt.Errorf("compose newsletter: %w", err)
	}

	c.log.Info("Newsletter drafted",
		logger.Int("article_count", len(articles)),
		logger.Int("style_context_count", len(recent)),
	)

	return content, nil
}

func userPrompt(articles []models.Article, recent []models.Newsletter) string {
	var b strings.Builder

	if len(recent) > 0 {
		b.WriteString("Match the voice of these recent issues:\n\n")
		for i, n := range recent {
			excerpt := n.Content
			if len(excerpt) > styleExcerptLimit {
				excerpt = excerpt[:styleExcerptLimit]
			}
			fmt.Fprintf(&b, "Issue %d excerpt:\n%s\n\n", i+1, excerpt)
		}
		b.WriteString("---\n\n")
	}

	b.WriteString("Articles for this issue:\n\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "Article %d\nTitle: %s\nSource: %s\nURL: %s\n", i+1, a.Title, a.SourceHost, a.URL)
		if a.PublishedAt != nil {
			fmt.Fprintf(&b, "Published: %s\n", a.PublishedAt.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "Summary: %s\n\n", a.Summary)
	}

	return b.String()
}
