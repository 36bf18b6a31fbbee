// Package scrape pulls article content from trusted financial sources
// through a Firecrawl-compatible scraping API.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"cartera/internal/adapters/config"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
)

// Domains the assistant is allowed to pull financial content from
var trustedDomains = []string{
	// Colombian finance
	"larepublica.co",
	"portafolio.co",
	"eltiempo.com",
	// global markets
	"bloomberg.com",
	"reuters.com",
	"finance.yahoo.com",
	// ETF research
	"morningstar.com",
	"seekingalpha.com",
}

// TrustedSource reports whether url points at an allowed domain
func TrustedSource(url string) bool {
	for _, domain := range trustedDomains {
		if strings.Contains(url, domain) {
			return true
		}
	}
	return false
}

// Article is the scraped content of one page
type Article struct {
	URL         string
	Title       string
	Description string
	Content     string
}

// Scraper fetches page content as markdown
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Article, error)
}

// Client calls the Firecrawl scrape API
type Client struct {
	apiKey     string
	baseURL    string
	summaryURL string
	httpClient *http.Client
	log        *logger.Logger
}

var _ Scraper = (*Client)(nil)

// NewClient creates a scrape client from config
func NewClient(cfg config.ScrapeConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		summaryURL: cfg.SummaryURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.Get().With("component", "scrape"),
	}
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			SourceURL   string `json:"sourceURL"`
		} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// Scrape fetches one trusted page as markdown
func (c *Client) Scrape(ctx context.Context, url string) (*Article, error) {
	if c.apiKey == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "firecrawl API key is not set")
	}
	if !TrustedSource(url) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s is not a trusted source", url)
	}

	body, err := json.Marshal(scrapeRequest{URL: url, Formats: []string{"markdown"}})
	if err != nil {
		return nil, errors.Wrap(err, "marshal scrape request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create scrape request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "scrape %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUpstream, "scrape API returned %d for %s", resp.StatusCode, url)
	}

	var payload scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(errors.ErrUpstream, "decode scrape response: %v", err)
	}
	if !payload.Success {
		return nil, errors.Wrapf(errors.ErrUpstream, "scrape failed for %s: %s", url, payload.Error)
	}

	sourceURL := payload.Data.Metadata.SourceURL
	if sourceURL == "" {
		sourceURL = url
	}

	return &Article{
		URL:         sourceURL,
		Title:       payload.Data.Metadata.Title,
		Description: payload.Data.Metadata.Description,
		Content:     payload.Data.Markdown,
	}, nil
}

// MarketSummary scrapes the configured Colombian indicators page and
// extracts the lines mentioning the key indicators
func (c *Client) MarketSummary(ctx context.Context) (string, error) {
	article, err := c.Scrape(ctx, c.summaryURL)
	if err != nil {
		return "", err
	}

	indicators := []string{"TRM", "Dólar", "ICOLCAP", "Euro", "Tasa de interés"}

	var b strings.Builder
	b.WriteString("Colombian Market Summary\n\n")

	lines := strings.Split(article.Content, "\n")
	limit := len(lines)
	if limit > 50 {
		limit = 50
	}
	for i := 0; i < limit; i++ {
		for _, indicator := range indicators {
			if strings.Contains(lines[i], indicator) {
				b.WriteString(lines[i] + "\n")
				if i+1 < len(lines) {
					b.WriteString(lines[i+1] + "\n")
				}
				break
			}
		}
	}

	b.WriteString("\nFull content available at: " + article.URL)
	return b.String(), nil
}
