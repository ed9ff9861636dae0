package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Interview metrics
	sessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewd_sessions_started_total",
			Help: "Total number of interview sessions started",
		},
		[]string{"module"},
	)

	sessionsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewd_sessions_completed_total",
			Help: "Total number of interview sessions completed",
		},
		[]string{"module", "reason"},
	)

	answersProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviewd_answers_processed_total",
			Help: "Total number of user answers processed",
		},
	)

	// LLM metrics
	llmCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewd_llm_calls_total",
			Help: "Total number of LLM generation calls",
		},
		[]string{"kind", "outcome"},
	)

	llmCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interviewd_llm_call_duration_seconds",
			Help:    "LLM generation call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interviewd_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	metricsOnce sync.Once
)

// InitMetrics registers all metrics with the default registry.
// Safe to call multiple times.
func InitMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(
			sessionsStartedTotal,
			sessionsCompletedTotal,
			answersProcessedTotal,
			llmCallsTotal,
			llmCallDuration,
			httpRequestsTotal,
			httpRequestDuration,
		)
	})
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordSessionStarted increments the sessions-started counter.
func RecordSessionStarted(module string) {
	sessionsStartedTotal.WithLabelValues(module).Inc()
}

// RecordSessionCompleted increments the sessions-completed counter.
// reason is "length" or "command".
func RecordSessionCompleted(module, reason string) {
	sessionsCompletedTotal.WithLabelValues(module, reason).Inc()
}

// RecordAnswerProcessed increments the answers-processed counter.
func RecordAnswerProcessed() {
	answersProcessedTotal.Inc()
}

// RecordLLMCall records a generation call. kind is "question" or
// "summary"; outcome is "ok" or "degraded".
func RecordLLMCall(kind, outcome string, seconds float64) {
	llmCallsTotal.WithLabelValues(kind, outcome).Inc()
	llmCallDuration.WithLabelValues(kind).Observe(seconds)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, path, status string, seconds float64) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
