package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"cartera/pkg/errors"
)

type Config struct {
	App           AppConfig
	LLM           LLMConfig
	Agent         AgentConfig
	Budget        BudgetConfig
	Sheets        SheetsConfig
	Rates         RatesConfig
	Market        MarketConfig
	Scrape        ScrapeConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"cartera"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// LLMConfig configures the OpenRouter chat completion client
type LLMConfig struct {
	APIKey            string        `envconfig:"OPENROUTER_API_KEY"`
	Model             string        `envconfig:"LLM_MODEL" default:"openai/gpt-3.5-turbo"`
	BaseURL           string        `envconfig:"LLM_BASE_URL" default:"https://openrouter.ai/api/v1"`
	Temperature       float64       `envconfig:"LLM_TEMPERATURE" default:"0.3"`
	MaxTokens         int           `envconfig:"LLM_MAX_TOKENS" default:"1024"`
	RequestTimeout    time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"60s"`
	RequestsPerMinute int           `envconfig:"LLM_REQUESTS_PER_MINUTE" default:"20"`
	Referer           string        `envconfig:"LLM_HTTP_REFERER" default:"https://github.com/cartera"`
	Title             string        `envconfig:"LLM_APP_TITLE" default:"Cartera Portfolio Assistant"`
}

// AgentConfig bounds the reasoning loop
type AgentConfig struct {
	MaxIterations int           `envconfig:"AGENT_MAX_ITERATIONS" default:"5"`
	ToolTimeout   time.Duration `envconfig:"AGENT_TOOL_TIMEOUT" default:"30s"`
}

// BudgetConfig holds the spending limits enforced before every model call
type BudgetConfig struct {
	LifetimeLimit   float64 `envconfig:"BUDGET_LIFETIME_LIMIT" default:"5.0"`
	DailyLimit      float64 `envconfig:"BUDGET_DAILY_LIMIT" default:"0.25"`
	DefaultEstimate float64 `envconfig:"BUDGET_DEFAULT_ESTIMATE" default:"0.01"`
	LedgerPath      string  `envconfig:"BUDGET_LEDGER_PATH" default:"usage.json"`
	Store           string  `envconfig:"BUDGET_STORE" default:"file"` // file | postgres
}

type SheetsConfig struct {
	SheetID   string        `envconfig:"PORTFOLIO_SHEET_ID"`
	ExportURL string        `envconfig:"SHEETS_EXPORT_URL" default:"https://docs.google.com/spreadsheets/d/%s/export?format=csv"`
	Timeout   time.Duration `envconfig:"SHEETS_TIMEOUT" default:"10s"`
	CacheTTL  time.Duration `envconfig:"SHEETS_CACHE_TTL" default:"5m"`
}

type RatesConfig struct {
	URL         string        `envconfig:"RATES_URL" default:"https://open.er-api.com/v6/latest/USD"`
	Timeout     time.Duration `envconfig:"RATES_TIMEOUT" default:"5s"`
	CacheTTL    time.Duration `envconfig:"RATES_CACHE_TTL" default:"1h"`
	DefaultRate float64       `envconfig:"RATES_DEFAULT_USD_COP" default:"4000"`
}

type MarketConfig struct {
	BaseURL           string        `envconfig:"MARKET_BASE_URL" default:"https://query1.finance.yahoo.com/v8/finance/chart"`
	Timeout           time.Duration `envconfig:"MARKET_TIMEOUT" default:"10s"`
	RequestsPerMinute int           `envconfig:"MARKET_REQUESTS_PER_MINUTE" default:"30"`
}

type ScrapeConfig struct {
	APIKey     string        `envconfig:"FIRECRAWL_API_KEY"`
	BaseURL    string        `envconfig:"FIRECRAWL_BASE_URL" default:"https://api.firecrawl.dev/v1"`
	Timeout    time.Duration `envconfig:"SCRAPE_TIMEOUT" default:"30s"`
	SummaryURL string        `envconfig:"SCRAPE_SUMMARY_URL" default:"https://www.larepublica.co/indicadores-economicos"`
}

// PostgresConfig is optional; when Host is empty the file-backed ledger store is used
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"cartera"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) Enabled() bool {
	return c.Host != ""
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig is optional; when Host is set the budget guard shares its daily
// spending window across processes through Redis
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"false"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks invariants that envconfig tags cannot express
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return errors.Wrap(errors.ErrConfiguration, "OPENROUTER_API_KEY is not set")
	}
	if c.Budget.LifetimeLimit <= 0 || c.Budget.DailyLimit <= 0 {
		return errors.Wrap(errors.ErrConfiguration, "budget limits must be positive")
	}
	if c.Budget.Store != "file" && c.Budget.Store != "postgres" {
		return errors.Wrapf(errors.ErrConfiguration, "unknown ledger store %q", c.Budget.Store)
	}
	if c.Budget.Store == "postgres" && !c.Postgres.Enabled() {
		return errors.Wrap(errors.ErrConfiguration, "postgres ledger store requires POSTGRES_HOST")
	}
	if c.Agent.MaxIterations <= 0 {
		return errors.Wrap(errors.ErrConfiguration, "agent iteration cap must be positive")
	}
	return nil
}
