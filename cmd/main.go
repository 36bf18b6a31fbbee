package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/adapters/ai"
	"cartera/internal/adapters/config"
	"cartera/internal/adapters/errors/noop"
	"cartera/internal/adapters/errors/sentry"
	"cartera/internal/adapters/market"
	"cartera/internal/adapters/postgres"
	"cartera/internal/adapters/rates"
	"cartera/internal/adapters/redis"
	"cartera/internal/adapters/scrape"
	"cartera/internal/adapters/sheets"
	"cartera/internal/agents"
	"cartera/internal/domain/portfolio"
	"cartera/internal/domain/usage"
	"cartera/internal/metrics"
	filerepo "cartera/internal/repository/file"
	pgrepo "cartera/internal/repository/postgres"
	"cartera/internal/services/budget"
	"cartera/internal/tools"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	if cfg.Metrics.Enabled {
		metrics.Init()
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	ctx := context.Background()

	store, cleanup := initUsageStore(ctx, cfg, log)
	defer cleanup()

	ledger, err := budget.NewLedger(ctx, store)
	if err != nil {
		log.Fatalf("Failed to load usage ledger: %v", err)
	}

	guard := initGuard(cfg, ledger, log)
	assistant := initAssistant(cfg, guard, ledger, log)

	runPromptLoop(ctx, assistant, ledger, log)

	status := assistant.Status(ctx)
	fmt.Printf("\nBudget: $%s / $%s spent (%s), today $%s / $%s\n",
		status.TotalSpent.StringFixed(4), status.TotalLimit.StringFixed(2), status.Level,
		status.DailySpent.StringFixed(4), status.DailyLimit.StringFixed(2))

	_ = errorTracker.Flush(ctx)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initUsageStore selects the ledger backing store: file by default,
// Postgres when configured
func initUsageStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (usage.Store, func()) {
	if cfg.Budget.Store == "postgres" {
		client, err := postgres.NewClient(cfg.Postgres)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}

		store := pgrepo.NewUsageStore(client.DB())
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare usage schema: %v", err)
		}

		log.Info("Usage ledger backed by PostgreSQL")
		return store, func() { _ = client.Close() }
	}

	log.Infof("Usage ledger backed by file %s", cfg.Budget.LedgerPath)
	return filerepo.NewUsageStore(cfg.Budget.LedgerPath), func() {}
}

// initGuard builds the budget guard, with the Redis spend cache when
// Redis is configured
func initGuard(cfg *config.Config, ledger *budget.Ledger, log *logger.Logger) *budget.Guard {
	policy := budget.Policy{
		LifetimeLimit: decimal.NewFromFloat(cfg.Budget.LifetimeLimit),
		DailyLimit:    decimal.NewFromFloat(cfg.Budget.DailyLimit),
	}

	opts := make([]budget.GuardOption, 0, 1)
	if cfg.Redis.Enabled() {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Warnf("Redis unavailable, daily window stays process-local: %v", err)
		} else {
			opts = append(opts, budget.WithSpendCache(budget.NewRedisSpendCache(client)))
			log.Info("Daily spend window shared through Redis")
		}
	}

	return budget.NewGuard(policy, ledger, opts...)
}

// initAssistant wires tools, adapters and the model client
func initAssistant(cfg *config.Config, guard *budget.Guard, ledger *budget.Ledger, log *logger.Logger) *agents.Assistant {
	sheetsClient, err := sheets.NewClient(cfg.Sheets)
	if err != nil {
		log.Fatalf("Failed to configure portfolio source: %v", err)
	}
	source := portfolio.NewCachedSource(sheetsClient, cfg.Sheets.CacheTTL)

	ratesClient := rates.NewClient(cfg.Rates)
	marketClient := market.NewClient(cfg.Market)
	scrapeClient := scrape.NewClient(cfg.Scrape)

	registry := tools.NewRegistry()
	tools.NewPortfolioTools(source, ratesClient).RegisterAll(registry)
	tools.NewMarketTools(source, marketClient).RegisterAll(registry)
	tools.NewResearchTools(scrapeClient).RegisterAll(registry)
	log.Infof("Registered tools: %s", strings.Join(registry.List(), ", "))

	client, err := ai.NewOpenRouterClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to configure model client: %v", err)
	}

	return agents.NewAssistant(client, registry, guard, ledger, ai.DefaultRateTable(), agents.AssistantConfig{
		MaxIterations:   cfg.Agent.MaxIterations,
		ToolTimeout:     cfg.Agent.ToolTimeout,
		DefaultEstimate: decimal.NewFromFloat(cfg.Budget.DefaultEstimate),
	})
}

// runPromptLoop reads questions from stdin until EOF or /quit.
// Per-query failures are printed and the loop continues.
func runPromptLoop(ctx context.Context, assistant *agents.Assistant, ledger *budget.Ledger, log *logger.Logger) {
	fmt.Println("Ask about your portfolio (/status, /history, /quit):")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		question := strings.TrimSpace(scanner.Text())
		switch {
		case question == "":
			continue
		case question == "/quit" || question == "/exit":
			return
		case question == "/status":
			printStatus(ctx, assistant)
			continue
		case question == "/history":
			printHistory(ledger)
			continue
		}

		answer, err := assistant.Query(ctx, question, classifyQuery(question))
		if err != nil {
			if errors.Is(err, errors.ErrBudgetExceeded) || errors.Is(err, errors.ErrDailyLimitExceeded) {
				fmt.Printf("Budget limit exceeded: %v\n", err)
			} else {
				fmt.Printf("Error processing query: %v\n", err)
			}
			continue
		}

		fmt.Println("\n" + answer + "\n")
	}
}

func printStatus(ctx context.Context, assistant *agents.Assistant) {
	status := assistant.Status(ctx)
	fmt.Printf("Budget Status: %s\n", status.Level)
	fmt.Printf("  Total: $%s / $%s (remaining $%s, %.1f%%)\n",
		status.TotalSpent.StringFixed(4), status.TotalLimit.StringFixed(2),
		status.TotalRemaining.StringFixed(4), status.TotalPercent)
	fmt.Printf("  Today: $%s / $%s (remaining $%s)\n",
		status.DailySpent.StringFixed(4), status.DailyLimit.StringFixed(2),
		status.DailyRemaining.StringFixed(4))
}

func printHistory(ledger *budget.Ledger) {
	history := ledger.History(7)
	if len(history) == 0 {
		fmt.Println("No usage recorded in the last 7 days.")
		return
	}

	fmt.Printf("Usage (last 7 days, %d calls):\n", len(history))
	for _, record := range history {
		fmt.Printf("  %s  %-28s in:%-6d out:%-6d $%s  [%s]\n",
			record.Timestamp.Local().Format("2006-01-02 15:04"),
			record.Model, record.InputTokens, record.OutputTokens,
			record.Cost.StringFixed(6), record.QueryType)
	}
}

// classifyQuery tags the query for the usage ledger
func classifyQuery(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "allocation") || strings.Contains(q, "distribu"):
		return "allocation"
	case strings.Contains(q, "summary") || strings.Contains(q, "total") || strings.Contains(q, "worth"):
		return "summary"
	case strings.Contains(q, "price") || strings.Contains(q, "etf") || strings.Contains(q, "market"):
		return "market"
	case strings.Contains(q, "article") || strings.Contains(q, "http"):
		return "research"
	default:
		return "general"
	}
}

func serveMetrics(addr string, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof("Metrics listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("Metrics server stopped: %v", err)
	}
}
