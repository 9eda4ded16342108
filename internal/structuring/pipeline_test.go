package structuring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbrief/curator/internal/llm"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
	"github.com/northbrief/curator/internal/scrape"
	"github.com/northbrief/curator/internal/structuring"
)

type fakeScraper struct {
	page *scrape.Page
	err  error
	urls []string
}

func (f *fakeScraper) ScrapeURL(_ context.Context, url string) (*scrape.Page, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

type fakeCompleter struct {
	response string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeArticleStore struct {
	article *models.Article
	getErr  error
	updated *models.Article
}

func (f *fakeArticleStore) GetByID(_ context.Context, _ string) (*models.Article, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.article, nil
}

func (f *fakeArticleStore) Update(_ context.Context, article *models.Article) error {
	f.updated = article
	return nil
}

func stub() *models.Article {
	return &models.Article{
		ID:    "a1",
		Title: "Stub Title",
		URL:   "https://news.example/story",
	}
}

func newPipeline(scraper *fakeScraper, completer *fakeCompleter, store *fakeArticleStore) *structuring.Pipeline {
	return structuring.NewPipeline(scraper, completer, store, nil, logger.NewNopLogger())
}

func TestStructure_ValidArticle(t *testing.T) {
	scraper := &fakeScraper{page: &scrape.Page{Markdown: "# Story\nbody text"}}
	completer := &fakeCompleter{response: `{
		"title": "Real Title",
		"summary": "A proper summary.",
		"fullContent": "Full text.",
		"url": "https://news.example/story",
		"publishedAt": "2025-05-20",
		"source": "Example News",
		"breadcrumb": "",
		"category": "",
		"hasValidArticle": true
	}`}
	store := &fakeArticleStore{article: stub()}

	got, err := newPipeline(scraper, completer, store).Structure(context.Background(), "a1")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://news.example/story"}, scraper.urls)
	assert.Equal(t, "Real Title", got.Title)
	assert.True(t, got.Structured)
	assert.True(t, got.IsSelected)
	require.NotNil(t, store.updated)
	assert.Equal(t, got, store.updated)

	require.Len(t, completer.requests, 1)
	require.NotNil(t, completer.requests[0].Schema)
	assert.Equal(t, "article_structure", completer.requests[0].Schema.Name)
}

func TestStructure_InvalidArticleMarkedAndDeselected(t *testing.T) {
	scraper := &fakeScraper{page: &scrape.Page{Markdown: "404 not found"}}
	completer := &fakeCompleter{response: `{
		"title": "", "summary": "", "fullContent": "", "url": "",
		"publishedAt": "", "source": "", "breadcrumb": "", "category": "",
		"hasValidArticle": false
	}`}
	article := stub()
	article.IsSelected = true
	store := &fakeArticleStore{article: article}

	got, err := newPipeline(scraper, completer, store).Structure(context.Background(), "a1")
	require.NoError(t, err)

	assert.True(t, got.Structured)
	assert.False(t, got.IsSelected)
	assert.Equal(t, models.InvalidArticleSummary, got.Summary)
}

func TestStructure_UnknownArticle(t *testing.T) {
	store := &fakeArticleStore{getErr: repository.ErrNotFound}

	_, err := newPipeline(&fakeScraper{}, &fakeCompleter{}, store).Structure(context.Background(), "missing")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestStructure_ScrapeFailure(t *testing.T) {
	scraper := &fakeScraper{err: errors.New("provider down")}
	store := &fakeArticleStore{article: stub()}

	_, err := newPipeline(scraper, &fakeCompleter{}, store).Structure(context.Background(), "a1")
	require.Error(t, err)
	assert.Nil(t, store.updated, "nothing must be persisted on scrape failure")
}

func TestStructure_CompletionFailure(t *testing.T) {
	scraper := &fakeScraper{page: &scrape.Page{Markdown: "content"}}
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	store := &fakeArticleStore{article: stub()}

	_, err := newPipeline(scraper, completer, store).Structure(context.Background(), "a1")
	require.Error(t, err)
	assert.Nil(t, store.updated)
}
