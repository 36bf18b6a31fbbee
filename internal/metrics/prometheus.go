package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Query metrics
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartera_queries_total",
			Help: "Total number of assistant queries",
		},
		[]string{"query_type", "status"}, // status: success|error|rejected
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cartera_query_duration_seconds",
			Help:    "Assistant query duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"query_type"},
	)

	// Model metrics
	ModelCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartera_model_calls_total",
			Help: "Total number of model calls",
		},
		[]string{"model", "status"}, // status: success|error
	)

	ModelTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartera_model_tokens_total",
			Help: "Total tokens consumed by model calls",
		},
		[]string{"model", "type"}, // type: input|output
	)

	CostUSD = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartera_cost_usd",
			Help: "Total model spend in USD",
		},
		[]string{"model", "query_type"},
	)

	// Budget metrics
	BudgetRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartera_budget_rejections_total",
			Help: "Total number of queries rejected by the budget guard",
		},
		[]string{"limit"}, // limit: lifetime|daily
	)

	LedgerWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cartera_ledger_write_failures_total",
			Help: "Total number of usage records that failed to persist",
		},
	)

	// Tool metrics
	ToolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartera_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"}, // status: success|error
	)

	ToolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cartera_tool_latency_seconds",
			Help:    "Tool execution latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"tool"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)

	prometheus.MustRegister(ModelCalls)
	prometheus.MustRegister(ModelTokens)
	prometheus.MustRegister(CostUSD)

	prometheus.MustRegister(BudgetRejections)
	prometheus.MustRegister(LedgerWriteFailures)

	prometheus.MustRegister(ToolExecutions)
	prometheus.MustRegister(ToolLatency)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordQuery records an assistant query outcome
func RecordQuery(queryType, status string, duration time.Duration) {
	QueriesTotal.WithLabelValues(queryType, status).Inc()
	QueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

// RecordModelCall records a model invocation
func RecordModelCall(model string, inputTokens, outputTokens int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ModelCalls.WithLabelValues(model, status).Inc()

	if inputTokens > 0 {
		ModelTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		ModelTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// RecordToolExecution records a tool execution
func RecordToolExecution(tool string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ToolExecutions.WithLabelValues(tool, status).Inc()
	ToolLatency.WithLabelValues(tool).Observe(latency.Seconds())
}
