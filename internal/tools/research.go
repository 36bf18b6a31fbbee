package tools

import (
	"context"
	"fmt"
	"strings"

	"cartera/internal/adapters/scrape"
)

const articlePreviewLimit = 3000

// ResearchTools builds the web research tools over the scrape client
type ResearchTools struct {
	scraper *scrape.Client
}

// NewResearchTools creates the research tool set
func NewResearchTools(scraper *scrape.Client) *ResearchTools {
	return &ResearchTools{scraper: scraper}
}

// RegisterAll adds every research tool to the registry
func (rt *ResearchTools) RegisterAll(registry *Registry) {
	registry.Register(New(
		"get_market_analysis",
		"Get current market analysis and indicators from trusted financial sources. Use when user asks about market conditions, economic outlook, or investment climate. Input: market focus (optional, e.g., 'colombian') or empty string.",
		rt.MarketAnalysis,
	))
	registry.Register(New(
		"research_article",
		"Scrape and analyze a financial article from trusted sources. Use when user provides a specific article URL to analyze. Input: article URL from trusted source (larepublica.co, portafolio.co, bloomberg.com, etc.)",
		rt.Article,
	))
	registry.Register(New(
		"research_market",
		"Research market information, news, or investment topics using web search. Use when user asks about market trends, investment opportunities, or specific topics.",
		rt.Market,
	))
}

// MarketAnalysis returns the Colombian indicators summary
func (rt *ResearchTools) MarketAnalysis(ctx context.Context, input string) (string, error) {
	focus := strings.ToLower(strings.TrimSpace(input))
	if focus != "" && focus != "colombian" {
		return fmt.Sprintf("Market analysis for '%s' not yet implemented. Currently supports: 'colombian'", focus), nil
	}

	summary, err := rt.scraper.MarketSummary(ctx)
	if err != nil {
		return "Failed to fetch Colombian market data.", nil
	}
	return summary, nil
}

// Article scrapes one article URL and renders a bounded preview
func (rt *ResearchTools) Article(ctx context.Context, input string) (string, error) {
	url := strings.TrimSpace(input)
	if url == "" || !strings.HasPrefix(url, "http") {
		return "Please provide a valid article URL from a trusted source (larepublica.co, portafolio.co, bloomberg.com, etc.)", nil
	}

	article, err := rt.scraper.Scrape(ctx, url)
	if err != nil {
		return fmt.Sprintf("Failed to scrape %s. Ensure it's from a trusted source.", url), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Article: %s\n", article.Title)
	fmt.Fprintf(&b, "Source: %s\n", article.URL)
	fmt.Fprintf(&b, "Description: %s\n\n", article.Description)
	b.WriteString("Content:\n")

	if len(article.Content) > articlePreviewLimit {
		b.WriteString(article.Content[:articlePreviewLimit])
		fmt.Fprintf(&b, "\n\n... (truncated, full article has %d characters)", len(article.Content))
	} else {
		b.WriteString(article.Content)
	}

	return b.String(), nil
}

// Market searches the web for a research query
func (rt *ResearchTools) Market(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "Please provide a research query.", nil
	}

	results, err := rt.scraper.Search(ctx, query, 5)
	if err != nil {
		return fmt.Sprintf("Market research for %q is unavailable right now.", query), nil
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Market Research: %s\n\n", query)
	for _, r := range results {
		fmt.Fprintf(&b, "- %s\n  %s\n  %s\n\n", r.Title, r.Description, r.URL)
	}

	return b.String(), nil
}
