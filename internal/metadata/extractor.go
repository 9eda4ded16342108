// Package metadata suggests display names for source URLs by peeking
// at the page's own metadata.
package metadata

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/northbrief/curator/internal/logger"
)

const (
	// defaultHTTPTimeout is the default timeout for HTTP requests
	defaultHTTPTimeout = 30 * time.Second
)

// Suggestion represents suggested values for the source form.
type Suggestion struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Extractor handles metadata extraction from URLs
type Extractor struct {
	logger logger.Logger
	client *http.Client
}

// NewExtractor creates a new metadata extractor
func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{
		logger: log,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Extract fetches a URL and extracts metadata for form prefilling
func (e *Extractor) Extract(ctx context.Context, sourceURL string) (*Suggestion, error) {
	e.logger.Info("Extracting metadata from URL",
		logger.String("url", sourceURL),
	)

	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if err := validateFetchURL(parsedURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set user agent to avoid bot blocking
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Curator/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	suggestion := &Suggestion{
		URL:         sourceURL,
		Name:        extractName(doc, parsedURL),
		Description: extractDescription(doc),
	}

	e.logger.Info("Metadata extraction complete",
		logger.String("url", sourceURL),
		logger.String("name", suggestion.Name),
	)

	return suggestion, nil
}

// blockedHosts are hostnames that must never be fetched server-side.
var blockedHosts = map[string]bool{
	"localhost":                true,
	"metadata.google.internal": true,
	"169.254.169.254":          true,
}

// validateFetchURL rejects URLs that would let the suggestion endpoint
// probe internal infrastructure.
func validateFetchURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if blockedHosts[host] {
		return fmt.Errorf("blocked hostname: %q", host)
	}
	if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
		return fmt.Errorf("blocked hostname: %q", host)
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// extractName extracts a suggested name from the page (priority order)
func extractName(doc *goquery.Document, parsedURL *url.URL) string {
	if ogSite, exists := doc.Find("meta[property='og:site_name']").Attr("content"); exists && ogSite != "" {
		return ogSite
	}

	if title := doc.Find("title").First().Text(); title != "" {
		return strings.TrimSpace(title)
	}

	// Fall back to domain name
	return parsedURL.Host
}

func extractDescription(doc *goquery.Document) string {
	if og, exists := doc.Find("meta[property='og:description']").Attr("content"); exists && og != "" {
		return og
	}
	if desc, exists := doc.Find("meta[name='description']").Attr("content"); exists {
		return desc
	}
	return ""
}
