// Package rates fetches the USD/COP exchange rate with a cached
// fallback so portfolio math never blocks on the rates API.
package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/adapters/config"
	"cartera/internal/domain/portfolio"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
)

// Provider returns conversion rates to COP
type Provider interface {
	Rates(ctx context.Context) portfolio.Rates
}

// Client quotes 1 USD in COP from open.er-api.com. Failures never
// propagate: the previous snapshot or the configured default rate is
// used instead, with a warning.
type Client struct {
	url         string
	defaultRate decimal.Decimal
	cacheTTL    time.Duration
	httpClient  *http.Client
	now         func() time.Time
	log         *logger.Logger

	mu        sync.Mutex
	cached    decimal.Decimal
	fetchedAt time.Time
}

var _ Provider = (*Client)(nil)

// NewClient creates the rates client from config
func NewClient(cfg config.RatesConfig) *Client {
	return &Client{
		url:         cfg.URL,
		defaultRate: decimal.NewFromFloat(cfg.DefaultRate),
		cacheTTL:    cfg.CacheTTL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		now:         time.Now,
		log:         logger.Get().With("component", "rates"),
	}
}

// WithNow overrides the time source, for tests
func (c *Client) WithNow(now func() time.Time) *Client {
	c.now = now
	return c
}

// USDCOP returns how many COP one USD buys
func (c *Client) USDCOP(ctx context.Context) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cached.IsZero() && c.now().Sub(c.fetchedAt) < c.cacheTTL {
		return c.cached
	}

	rate, err := c.fetch(ctx)
	if err != nil {
		if !c.cached.IsZero() {
			c.log.Warnf("rate fetch failed, using stale rate %s: %v", c.cached, err)
			return c.cached
		}
		c.log.Warnf("rate fetch failed, using default %s: %v", c.defaultRate, err)
		return c.defaultRate
	}

	c.cached = rate
	c.fetchedAt = c.now()
	return rate
}

// Rates returns the conversion map used by portfolio valuations
func (c *Client) Rates(ctx context.Context) portfolio.Rates {
	return portfolio.Rates{
		portfolio.COP: decimal.NewFromInt(1),
		portfolio.USD: c.USDCOP(ctx),
	}
}

type apiResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *Client) fetch(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "create rates request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrUnavailable, "fetch rates: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, errors.Wrapf(errors.ErrUpstream, "rates API returned %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrUpstream, "decode rates response: %v", err)
	}

	if body.Result != "success" {
		return decimal.Zero, errors.Wrapf(errors.ErrUpstream, "rates API result %q", body.Result)
	}

	cop, ok := body.Rates["COP"]
	if !ok || cop <= 0 {
		return decimal.Zero, errors.Wrap(errors.ErrUpstream, "COP rate missing from response")
	}

	return decimal.NewFromFloat(cop), nil
}
