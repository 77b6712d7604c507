// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sanlang_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Recommendations
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_recommendations_total",
			Help: "Recommendation requests by content type and reason",
		},
		[]string{"content_type", "reason"},
	)

	// Deck drip
	DripWordsAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sanlang_drip_words_added_total",
			Help: "Words added to learner vocabularies by the daily drip",
		},
	)

	DripRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_drip_runs_total",
			Help: "Per-subscription drip runs by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "completed"
	)

	// Story generation
	GenerationJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_generation_jobs_total",
			Help: "Story generation jobs by final status",
		},
		[]string{"status"},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sanlang_generation_duration_seconds",
			Help:    "Story generation wall time",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	GenerationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sanlang_generation_queue_depth",
			Help: "Jobs waiting for a generation worker",
		},
	)

	// Media migration
	MigrationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_media_migration_results_total",
			Help: "Media key migration results by asset kind and outcome",
		},
		[]string{"kind", "outcome"}, // "moved", "relinked", "failed", "dry_run"
	)

	// Story API client
	StoryAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_storyapi_requests_total",
			Help: "Story API client calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	StoryAPICacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_storyapi_cache_hits_total",
			Help: "Story API client cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	// LLM
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_llm_requests_total",
			Help: "LLM requests by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sanlang_llm_tokens_total",
			Help: "LLM tokens consumed by model and direction",
		},
		[]string{"model", "direction"}, // "input", "output"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sanlang_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordAPIRequest records a finished HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRecommendation records one recommendation request.
func RecordRecommendation(contentType, reason string) {
	if reason == "" {
		reason = "none"
	}
	RecommendationsTotal.WithLabelValues(contentType, reason).Inc()
}

// RecordDrip records a drip run for one subscription.
func RecordDrip(added int, completed bool, err error) {
	switch {
	case err != nil:
		DripRuns.WithLabelValues("error").Inc()
		return
	case completed:
		DripRuns.WithLabelValues("completed").Inc()
	default:
		DripRuns.WithLabelValues("ok").Inc()
	}
	DripWordsAdded.Add(float64(added))
}

// RecordGeneration records a job reaching a final status.
func RecordGeneration(status string, duration time.Duration) {
	GenerationJobs.WithLabelValues(status).Inc()
	GenerationDuration.Observe(duration.Seconds())
}

// RecordMigration records one migrated media record.
func RecordMigration(kind, outcome string) {
	MigrationResults.WithLabelValues(kind, outcome).Inc()
}

// RecordStoryAPICall records a story API client call.
func RecordStoryAPICall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StoryAPIRequests.WithLabelValues(operation, outcome).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	if hit {
		StoryAPICacheHits.WithLabelValues("hit").Inc()
		return
	}
	StoryAPICacheHits.WithLabelValues("miss").Inc()
}

// RecordLLMRequest records one provider call and its token usage.
func RecordLLMRequest(purpose, model string, inputTokens, outputTokens int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	LLMRequests.WithLabelValues(purpose, outcome).Inc()
	if model == "" {
		return
	}
	LLMTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	LLMTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// SetBreakerState publishes a circuit breaker state (0 closed, 1 half-open,
// 2 open).
func SetBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}
