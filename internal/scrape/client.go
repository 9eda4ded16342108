// Package scrape wraps the hosted batch-scrape API used to fetch
// source listing pages and individual articles as markdown.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxErrorBodyBytes = 2048

// Page is one scraped document with its provider metadata.
type Page struct {
	Markdown string       `json:"markdown"`
	Metadata PageMetadata `json:"metadata"`
}

// PageMetadata carries the fields the provider extracts from the page
// itself. SourceURL is the URL the page was actually fetched from.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SourceURL   string `json:"sourceURL"`
	StatusCode  int    `json:"statusCode"`
}

// BatchStatus is a snapshot of a batch job on the provider side.
type BatchStatus struct {
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Pages     []Page `json:"data"`
}

// Batch job states as reported by the provider.
const (
	StatusScraping  = "scraping"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Client talks to a Firecrawl-compatible scrape API. Construct it with
// NewClient; the zero value is not usable.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds the connection settings for the scrape API.
type Config struct {
	BaseURL string        `yaml:"base_url" env:"SCRAPE_BASE_URL"`
	APIKey  string        `yaml:"api_key" env:"SCRAPE_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"SCRAPE_TIMEOUT"`
}

// NewClient builds a scrape API client from cfg. A zero timeout
// defaults to 60s to cover slow single-page fetches.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type batchScrapeRequest struct {
	URLs               []string `json:"urls"`
	Formats            []string `json:"formats"`
	OnlyMainContent    bool     `json:"onlyMainContent"`
	RemoveBase64Images bool     `json:"removeBase64Images"`
	BlockAds           bool     `json:"blockAds"`
}

type batchScrapeResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error"`
}

// SubmitBatch starts a batch scrape over urls and returns the provider
// job id used for polling.
func (c *Client) SubmitBatch(ctx context.Context, urls []string) (string, error) {
	req := batchScrapeRequest{
		URLs:               urls,
		Formats:            []string{"markdown"},
		OnlyMainContent:    true,
		RemoveBase64Images: true,
		BlockAds:           true,
	}

	var resp batchScrapeResponse
	if err := c.do(ctx, http.MethodPost, "/batch/scrape", req, &resp); err != nil {
		return "", fmt.Errorf("submit batch scrape: %w", err)
	}
	if !resp.Success || resp.ID == "" {
		return "", fmt.Errorf("submit batch scrape: provider rejected request: %s", resp.Error)
	}
	return resp.ID, nil
}

// GetBatchStatus fetches the current state of a batch job, including
// scraped pages once the job completes.
func (c *Client) GetBatchStatus(ctx context.Context, jobID string) (*BatchStatus, error) {
	var status BatchStatus
	if err := c.do(ctx, http.MethodGet, "/batch/scrape/"+jobID, nil, &status); err != nil {
		return nil, fmt.Errorf("get batch status: %w", err)
	}
	return &status, nil
}

// CancelBatch asks the provider to stop a running batch job.
func (c *Client) CancelBatch(ctx context.Context, jobID string) error {
	if err := c.do(ctx, http.MethodDelete, "/batch/scrape/"+jobID, nil, nil); err != nil {
		return fmt.Errorf("cancel batch scrape: %w", err)
	}
	return nil
}

type scrapeRequest struct {
	URL                string   `json:"url"`
	Formats            []string `json:"formats"`
	OnlyMainContent    bool     `json:"onlyMainContent"`
	RemoveBase64Images bool     `json:"removeBase64Images"`
	BlockAds           bool     `json:"blockAds"`
	MaxAge             int      `json:"maxAge"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Data    Page   `json:"data"`
	Error   string `json:"error"`
}

// ScrapeURL fetches a single page fresh (maxAge 0 bypasses the
// provider cache) and returns its markdown and metadata.
func (c *Client) ScrapeURL(ctx context.Context, url string) (*Page, error) {
	req := scrapeRequest{
		URL:                url,
		Formats:            []string{"markdown"},
		OnlyMainContent:    true,
		RemoveBase64Images: true,
		BlockAds:           true,
		MaxAge:             0,
	}

	var resp scrapeResponse
	if err := c.do(ctx, http.MethodPost, "/scrape", req, &resp); err != nil {
		return nil, fmt.Errorf("scrape url: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("scrape url: provider rejected request: %s", resp.Error)
	}
	return &resp.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
