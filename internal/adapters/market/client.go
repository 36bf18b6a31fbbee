// Package market quotes ETF and stock prices from the Yahoo Finance
// chart endpoint.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"cartera/internal/adapters/config"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
	"cartera/pkg/ratelimit"
)

// Quote is a snapshot price for one ticker
type Quote struct {
	Symbol        string
	Name          string
	Currency      string
	Price         decimal.Decimal
	PreviousClose decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

// Quoter fetches market quotes
type Quoter interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
}

// Client talks to the Yahoo chart API
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	log         *logger.Logger
}

var _ Quoter = (*Client)(nil)

// NewClient creates a market data client from config
func NewClient(cfg config.MarketConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: ratelimit.NewLimiter("market", cfg.RequestsPerMinute),
		log:         logger.Get().With("component", "market"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote fetches the current quote for symbol
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "symbol cannot be empty")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait")
	}

	endpoint := fmt.Sprintf("%s/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create quote request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "fetch quote for %s: %v", symbol, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Wrapf(errors.ErrNotFound, "unknown symbol %s", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUpstream, "chart API returned %d for %s", resp.StatusCode, symbol)
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrapf(errors.ErrUpstream, "decode chart response: %v", err)
	}

	if body.Chart.Error != nil {
		return nil, errors.Wrapf(errors.ErrUpstream, "chart API error for %s: %s",
			symbol, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no chart data for %s", symbol)
	}

	meta := body.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no price for %s", symbol)
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = symbol
	}
	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}

	price := decimal.NewFromFloat(meta.RegularMarketPrice)
	previous := decimal.NewFromFloat(meta.PreviousClose)

	change := decimal.Zero
	changePercent := decimal.Zero
	if previous.IsPositive() {
		change = price.Sub(previous)
		changePercent = change.Div(previous).Mul(decimal.NewFromInt(100))
	}

	return &Quote{
		Symbol:        meta.Symbol,
		Name:          name,
		Currency:      currency,
		Price:         price,
		PreviousClose: previous,
		Change:        change,
		ChangePercent: changePercent,
	}, nil
}
