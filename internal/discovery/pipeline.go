// Package discovery finds candidate articles by batch-scraping source
// listing pages and asking a completion model to pick out article
// links.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/northbrief/curator/internal/events"
	"github.com/northbrief/curator/internal/llm"
	"github.com/northbrief/curator/internal/logger"
	"github.com/northbrief/curator/internal/models"
	"github.com/northbrief/curator/internal/repository"
	"github.com/northbrief/curator/internal/scrape"
)

const (
	// fallbackContentLimit bounds the raw markdown stored on stub
	// articles when extraction falls back to page metadata.
	fallbackContentLimit = 5000

	// promptPageLimit bounds how much of each page the extraction
	// prompt carries.
	promptPageLimit = 10000
)

// ScrapeClient is the slice of the scrape API the pipeline needs.
type ScrapeClient interface {
	SubmitBatch(ctx context.Context, urls []string) (string, error)
	GetBatchStatus(ctx context.Context, jobID string) (*scrape.BatchStatus, error)
}

// Completer issues one chat completion call.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// ArticleStore is the slice of the article repository the pipeline needs.
type ArticleStore interface {
	Create(ctx context.Context, article *models.Article) error
	GetByURL(ctx context.Context, url string) (*models.Article, error)
}

// JobStore is the slice of the scrape job repository the pipeline needs.
type JobStore interface {
	Create(ctx context.Context, job *models.ScrapeJob) error
	UpdateStatus(ctx context.Context, id string, status models.JobStatus, update repository.StatusUpdate) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config controls the polling loop.
type Config struct {
	PollInterval    time.Duration `yaml:"poll_interval" env:"DISCOVERY_POLL_INTERVAL"`
	MaxPollAttempts int           `yaml:"max_poll_attempts" env:"DISCOVERY_MAX_POLL_ATTEMPTS"`
}

// Deps are the pipeline's collaborators. Sleep and Now are optional
// and default to the real clock.
type Deps struct {
	Scraper   ScrapeClient
	Completer Completer
	Articles  ArticleStore
	Jobs      JobStore
	Events    *events.Publisher
	Sleep     SleepFunc
	Now       func() time.Time
}

// Request is one discovery run over a set of source listing URLs.
type Request struct {
	URLs              []string
	DateRange         string
	BrandInstructions string
}

// Run states reported to the caller.
const (
	RunCompleted    = "completed"
	RunStillRunning = "scraping"
)

// Result is the outcome of a discovery run. Status RunStillRunning
// means the remote job outlived the polling window and the caller
// should check back later.
type Result struct {
	Status       string           `json:"status"`
	Message      string           `json:"message,omitempty"`
	JobID        string           `json:"job_id"`
	Articles     []models.Article `json:"articles"`
	TotalPages   int              `json:"total_pages"`
	PagesScraped int              `json:"pages_scraped"`
}

// Pipeline runs discovery end to end: submit, poll, extract, persist.
type Pipeline struct {
	scraper   ScrapeClient
	completer Completer
	articles  ArticleStore
	jobs      JobStore
	events    *events.Publisher
	cfg       Config
	log       logger.Logger
	sleep     SleepFunc
	now       func() time.Time
}

// NewPipeline creates a discovery pipeline.
func NewPipeline(deps Deps, cfg Config, log logger.Logger) *Pipeline {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 30
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = realSleep
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		scraper:   deps.Scraper,
		completer: deps.Completer,
		articles:  deps.Articles,
		jobs:      deps.Jobs,
		events:    deps.Events,
		cfg:       cfg,
		log:       log,
		sleep:     sleep,
		now:       now,
	}
}

// Run executes one discovery request. It blocks for up to
// PollInterval * MaxPollAttempts while the remote batch job runs.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	remoteID, err := p.scraper.SubmitBatch(ctx, req.URLs)
	if err != nil {
		return nil, fmt.Errorf("submit discovery batch: %w", err)
	}

	job := &models.ScrapeJob{
		JobID:     remoteID,
		URLs:      models.StringArray(req.URLs),
		Status:    models.JobScraping,
		StartedAt: p.now().UTC(),
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist scrape job: %w", err)
	}

	p.log.Info("Discovery batch submitted",
		logger.String("job_id", job.ID),
		logger.String("remote_job_id", remoteID),
		logger.Int("url_count", len(req.URLs)),
	)

	status, err := p.poll(ctx, job)
	if err != nil {
		return nil, err
	}
	if status == nil {
		// Polling window exhausted; the remote job keeps running and
		// the job row stays in-flight for later reconciliation.
		return &Result{
			Status:   RunStillRunning,
			Message:  "Scraping is still running, check back later",
			JobID:    job.ID,
			Articles: []models.Article{},
		}, nil
	}

	return p.extract(ctx, job, status, req)
}

// poll watches the remote job. It returns the final status on
// completion, nil when the polling window is exhausted, and an error
// when the remote job failed or a poll request could not be made.
func (p *Pipeline) poll(ctx context.Context, job *models.ScrapeJob) (*scrape.BatchStatus, error) {
	for attempt := 0; attempt < p.cfg.MaxPollAttempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.cfg.PollInterval); err != nil {
				return nil, fmt.Errorf("poll wait: %w", err)
			}
		}

		status, err := p.scraper.GetBatchStatus(ctx, job.JobID)
		if err != nil {
			// Inconclusive: the remote job may still be running, so the
			// local row must not be failed.
			return nil, fmt.Errorf("poll scrape status: %w", err)
		}

		switch status.Status {
		case scrape.StatusCompleted:
			return status, nil

		case scrape.StatusFailed:
			msg := "remote scrape job failed"
			completedAt := p.now().UTC()
			if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobFailed, repository.StatusUpdate{
				CompletedAt:  &completedAt,
				ErrorMessage: &msg,
			}); err != nil {
				p.log.Error("Failed to mark job failed", logger.String("job_id", job.ID), logger.Error(err))
			}
			return nil, fmt.Errorf("discovery job %s: %s", job.ID, msg)

		case scrape.StatusCancelled:
			completedAt := p.now().UTC()
			if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobCancelled, repository.StatusUpdate{
				CompletedAt: &completedAt,
			}); err != nil {
				p.log.Error("Failed to mark job cancelled", logger.String("job_id", job.ID), logger.Error(err))
			}
			return nil, fmt.Errorf("discovery job %s was cancelled remotely", job.ID)

		default:
			p.log.Debug("Scrape job still running",
				logger.String("job_id", job.ID),
				logger.Int("attempt", attempt+1),
				logger.Int("completed", status.Completed),
				logger.Int("total", status.Total),
			)
		}
	}
	return nil, nil
}

// extract turns completed pages into stub articles and closes the job.
func (p *Pipeline) extract(ctx context.Context, job *models.ScrapeJob, status *scrape.BatchStatus, req Request) (*Result, error) {
	pages := make([]scrape.Page, 0, len(status.Pages))
	for _, page := range status.Pages {
		if strings.TrimSpace(page.Markdown) != "" {
			pages = append(pages, page)
		}
	}

	created := []models.Article{}
	if len(pages) > 0 {
		candidates, err := p.extractWithLLM(ctx, pages, req)
		if err != nil {
			p.log.Warn("Article extraction failed, falling back to page stubs",
				logger.String("job_id", job.ID),
				logger.Error(err),
			)
			candidates = p.fallbackCandidates(pages)
		}
		created = p.persistCandidates(ctx, candidates, req.BrandInstructions != "")
	}

	completedAt := p.now().UTC()
	total := status.Total
	scraped := len(pages)
	if err := p.jobs.UpdateStatus(ctx, job.ID, models.JobCompleted, repository.StatusUpdate{
		CompletedAt:  &completedAt,
		TotalPages:   &total,
		PagesScraped: &scraped,
	}); err != nil {
		p.log.Error("Failed to mark job completed", logger.String("job_id", job.ID), logger.Error(err))
	}

	p.log.Info("Discovery run completed",
		logger.String("job_id", job.ID),
		logger.Int("pages_scraped", scraped),
		logger.Int("articles_created", len(created)),
	)

	return &Result{
		Status:       RunCompleted,
		JobID:        job.ID,
		Articles:     created,
		TotalPages:   total,
		PagesScraped: scraped,
	}, nil
}

// candidate is one article proposal before dedup and persistence.
type candidate struct {
	Title       string
	URL         string
	PublishedAt *time.Time
	BrandScore  *float64
	FullContent string
}

type extractedArticle struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"publishedDate"`
	BrandScore    *float64 `json:"brandScore"`
}

type extractionResult struct {
	Articles []extractedArticle `json:"articles"`
}

func (p *Pipeline) extractWithLLM(ctx context.Context, pages []scrape.Page, req Request) ([]candidate, error) {
	content, err := p.completer.Complete(ctx, llm.Request{
		System: extractionSystemPrompt(req),
		User:   extractionUserPrompt(pages),
		Schema: &llm.Schema{
			Name:   "articles_extraction",
			Schema: articlesExtractionSchema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}

	var parsed extractionResult
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction output: %w", err)
	}

	candidates := make([]candidate, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		if a.URL == "" {
			continue
		}
		candidates = append(candidates, candidate{
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: parsePublishedDate(a.PublishedDate),
			BrandScore:  a.BrandScore,
		})
	}
	return candidates, nil
}

// fallbackCandidates builds one stub per scraped page from provider
// metadata when the model cannot be used.
func (p *Pipeline) fallbackCandidates(pages []scrape.Page) []candidate {
	candidates := make([]candidate, 0, len(pages))
	for _, page := range pages {
		u := page.Metadata.SourceURL
		if u == "" {
			continue
		}
		title := page.Metadata.Title
		if title == "" {
			title = u
		}
		content := page.Markdown
		if len(content) > fallbackContentLimit {
			content = content[:fallbackContentLimit]
		}
		candidates = append(candidates, candidate{
			Title:       title,
			URL:         u,
			FullContent: content,
		})
	}
	return candidates
}

// persistCandidates dedups by URL (against the store and within the
// batch) and creates stub articles for the survivors.
func (p *Pipeline) persistCandidates(ctx context.Context, candidates []candidate, brandScored bool) []models.Article {
	seen := make(map[string]bool, len(candidates))
	created := []models.Article{}

	for _, c := range candidates {
		if seen[c.URL] {
			continue
		}
		seen[c.URL] = true

		existing, err := p.articles.GetByURL(ctx, c.URL)
		if err != nil {
			p.log.Error("Dedup lookup failed", logger.String("url", c.URL), logger.Error(err))
			continue
		}
		if existing != nil {
			continue
		}

		article := models.Article{
			Title:       c.Title,
			URL:         c.URL,
			SourceHost:  hostOf(c.URL),
			FullContent: c.FullContent,
			PublishedAt: c.PublishedAt,
			ScrapedAt:   p.now().UTC(),
			Structured:  false,
			IsSelected:  false,
		}
		if brandScored {
			article.BrandScore = c.BrandScore
		}

		if err := p.articles.Create(ctx, &article); err != nil {
			p.log.Error("Failed to create article stub", logger.String("url", c.URL), logger.Error(err))
			continue
		}
		created = append(created, article)

		p.events.PublishAsync(events.Event{
			EventType: events.EventArticleDiscovered,
			EntityID:  article.ID,
		})
	}
	return created
}

var publishedDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
}

func parsePublishedDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range publishedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func realSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
