// Package sheets reads portfolio positions from a Google Sheets
// spreadsheet through its public CSV export endpoint.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/adapters/config"
	"cartera/internal/domain/portfolio"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
)

const dateLayout = "2006-01-02"

// Client fetches and parses the positions sheet
type Client struct {
	exportURL  string
	httpClient *http.Client
	log        *logger.Logger
}

var _ portfolio.Source = (*Client)(nil)

// NewClient creates a sheets client from config
func NewClient(cfg config.SheetsConfig) (*Client, error) {
	if cfg.SheetID == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "PORTFOLIO_SHEET_ID is not set")
	}

	return &Client{
		exportURL:  fmt.Sprintf(cfg.ExportURL, cfg.SheetID),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.Get().With("component", "sheets"),
	}, nil
}

// NewClientWithURL creates a client hitting a fixed export URL, for tests
func NewClientWithURL(url string, timeout time.Duration) *Client {
	return &Client{
		exportURL:  url,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Get().With("component", "sheets"),
	}
}

// Portfolio downloads the sheet and parses it into positions
func (c *Client) Portfolio(ctx context.Context) (*portfolio.Portfolio, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.exportURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "fetch sheet: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUpstream, "sheets export returned %d", resp.StatusCode)
	}

	positions, err := c.parse(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.Debugw("portfolio fetched", "positions", len(positions))
	return &portfolio.Portfolio{Positions: positions}, nil
}

// parse reads CSV rows into positions. Expected header:
// platform,symbol,asset_type,quantity,average_price,currency,purchase_date
// Rows that fail to parse are skipped with a warning; summary rows like
// "TOTAL PATRIMONIO" are ignored.
func (c *Client) parse(r io.Reader) ([]portfolio.Position, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, validated below
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUpstream, "parse sheet csv: %v", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	positions := make([]portfolio.Position, 0, len(rows)-1)
	for i, row := range rows[1:] { // skip header
		line := i + 2
		position, ok := c.parseRow(row, line)
		if ok {
			positions = append(positions, position)
		}
	}

	return positions, nil
}

func (c *Client) parseRow(row []string, line int) (portfolio.Position, bool) {
	if len(row) < 7 {
		return portfolio.Position{}, false
	}

	symbol := strings.TrimSpace(row[1])
	if symbol == "" || strings.EqualFold(symbol, "TOTAL PATRIMONIO") {
		return portfolio.Position{}, false
	}

	quantity, err := parseNumber(row[3])
	if err != nil {
		c.log.Warnf("skipping row %d (%s): bad quantity: %v", line, symbol, err)
		return portfolio.Position{}, false
	}
	price, err := parseNumber(row[4])
	if err != nil {
		c.log.Warnf("skipping row %d (%s): bad price: %v", line, symbol, err)
		return portfolio.Position{}, false
	}

	purchaseDate, err := time.Parse(dateLayout, strings.TrimSpace(row[6]))
	if err != nil {
		c.log.Warnf("skipping row %d (%s): bad purchase date: %v", line, symbol, err)
		return portfolio.Position{}, false
	}

	position := portfolio.Position{
		Platform:     strings.TrimSpace(row[0]),
		Symbol:       symbol,
		AssetType:    portfolio.AssetType(strings.ToLower(strings.TrimSpace(row[2]))),
		Quantity:     quantity,
		AveragePrice: price,
		Currency:     portfolio.Currency(strings.ToUpper(strings.TrimSpace(row[5]))),
		PurchaseDate: purchaseDate,
	}

	if err := position.Validate(); err != nil {
		c.log.Warnf("skipping row %d (%s): %v", line, symbol, err)
		return portfolio.Position{}, false
	}

	return position, true
}

// parseNumber handles comma thousand separators as used in the sheet
func parseNumber(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	return decimal.NewFromString(cleaned)
}
