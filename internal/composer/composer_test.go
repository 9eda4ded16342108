package composer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northbrief/curator/internal/composer"
	"github.com/northbrief/curator/internal/llm"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
)

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
	articles []models.Article
	gotIDs   []string
}

func (f *fakeArticleStore) GetByIDs(_ context.Context, ids []string) ([]models.Article, error) {
	f.gotIDs = ids
	return f.articles, nil
}

type fakeNewsletterStore struct {
	recent   []models.Newsletter
	gotLimit int
}

func (f *fakeNewsletterStore) Recent(_ context.Context, limit int) ([]models.Newsletter, error) {
	f.gotLimit = limit
	return f.recent, nil
}

func sampleArticles() []models.Article {
	return []models.Article{
		{ID: "a1", Title: "Story One", SourceHost: "news.example", URL: "https://news.example/one", Summary: "First summary."},
		{ID: "a2", Title: "Story Two", SourceHost: "other.example", URL: "https://other.example/two", Summary: "Second summary."},
	}
}

func TestGenerate(t *testing.T) {
	completer := &fakeCompleter{response: "# This Week\n..."}
	articles := &fakeArticleStore{articles: sampleArticles()}
	newsletters := &fakeNewsletterStore{recent: []models.Newsletter{
		{ID: "n1", Content: strings.Repeat("old issue text ", 100)},
	}}

	out, err := composer.New(completer, articles, newsletters, logger.NewNopLogger()).
		Generate(context.Background(), []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, "# This Week\n...", out)

	assert.Equal(t, []string{"a1", "a2"}, articles.gotIDs)
	assert.Equal(t, 3, newsletters.gotLimit)

	require.Len(t, completer.requests, 1)
	req := completer.requests[0]
	assert.Nil(t, req.Schema, "composition is a plain completion")
	assert.Contains(t, req.System, "attribution")
	assert.Contains(t, req.User, "Story One")
	assert.Contains(t, req.User, "https://other.example/two")

	// Prior issue excerpts are capped at 500 characters.
	assert.Contains(t, req.User, "Issue 1 excerpt")
	start := strings.Index(req.User, "Issue 1 excerpt:\n")
	require.GreaterOrEqual(t, start, 0)
	section := req.User[start:]
	excerpt := section[:strings.Index(section, "\n\n")]
	assert.LessOrEqual(t, len(excerpt), len("Issue 1 excerpt:\n")+500)
}

func TestGenerate_NoPriorIssues(t *testing.T) {
	completer := &fakeCompleter{response: "draft"}
	articles := &fakeArticleStore{articles: sampleArticles()}
	newsletters := &fakeNewsletterStore{}

	out, err := composer.New(completer, articles, newsletters, logger.NewNopLogger()).
		Generate(context.Background(), []string{"a1", "a2"})
	require.NoError(t, err)
	assert.Equal(t, "draft", out)
	assert.NotContains(t, completer.requests[0].User, "recent issues")
}

func TestGenerate_NoArticles(t *testing.T) {
	_, err := composer.New(&fakeCompleter{}, &fakeArticleStore{}, &fakeNewsletterStore{}, logger.NewNopLogger()).
		Generate(context.Background(), []string{"missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no articles")
}

func TestGenerate_CompletionFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model unavailable")}
	articles := &fakeArticleStore{articles: sampleArticles()}

	_, err := composer.New(completer, articles, &fakeNewsletterStore{}, logger.NewNopLogger()).
		Generate(context.Background(), []string{"a1"})
	require.Error(t, err)
}
