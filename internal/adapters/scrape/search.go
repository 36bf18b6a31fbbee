package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"cartera/pkg/errors"
)

// SearchResult is one hit from the search API
type SearchResult struct {
	URL         string
	Title       string
	Description string
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"data"`
	Error string `json:"error"`
}

// Search runs a web search through the scrape API
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "firecrawl API key is not set")
	}
	if query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "query cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	body, err := json.Marshal(searchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, errors.Wrap(err, "marshal search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "search %q: %v", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUpstream, "search API returned %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(errors.ErrUpstream, "decode search response: %v", err)
	}
	if !payload.Success {
		return nil, errors.Wrapf(errors.ErrUpstream, "search failed: %s", payload.Error)
	}

	results := make([]SearchResult, 0, len(payload.Data))
	for _, hit := range payload.Data {
		results = append(results, SearchResult{
			URL:         hit.URL,
			Title:       hit.Title,
			Description: hit.Description,
		})
	}
	return results, nil
}
