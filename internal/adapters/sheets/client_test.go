package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/adapters/config"
	"cartera/internal/domain/portfolio"
	"cartera/pkg/errors"
)

const sampleCSV = `platform,symbol,asset_type,quantity,average_price,currency,purchase_date
trii,ECOPETROL,stock,100,"2,500",COP,2025-06-01
etoro,VOO,etf,2,400,USD,2025-01-15
davivienda,TOTAL PATRIMONIO,cash,1,999,COP,2025-01-01
trii,BROKEN,stock,abc,100,COP,2025-01-01
nu,CASH,cash,1,"1,000,000",COP,2024-12-01
`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithURL(server.URL, 5*time.Second)
}

func TestClientParsesPositions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	})

	p, err := client.Portfolio(context.Background())
	require.NoError(t, err)

	// summary row and unparsable row are dropped
	require.Equal(t, 3, p.Len())

	first := p.Positions[0]
	assert.Equal(t, "trii", first.Platform)
	assert.Equal(t, "ECOPETROL", first.Symbol)
	assert.Equal(t, portfolio.AssetStock, first.AssetType)
	assert.True(t, first.Quantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, first.AveragePrice.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, portfolio.COP, first.Currency)
	assert.Equal(t, 2025, first.PurchaseDate.Year())

	cash := p.Positions[2]
	assert.True(t, cash.AveragePrice.Equal(decimal.NewFromInt(1000000)))
}

func TestClientEmptySheet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("platform,symbol,asset_type,quantity,average_price,currency,purchase_date\n"))
	})

	p, err := client.Portfolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}

func TestClientUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Portfolio(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUpstream))
}

func TestNewClientRequiresSheetID(t *testing.T) {
	_, err := NewClient(config.SheetsConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
