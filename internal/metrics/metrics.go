package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexgen_generations_total",
			Help: "Total number of generation calls by outcome (parsed, fallback, parse_error, service_error)",
		},
		[]string{"outcome"},
	)

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lexgen_generation_duration_seconds",
		Help:    "Time taken by the model call including retries",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	ModelAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexgen_model_attempts_total",
			Help: "Total number of model calls by provider and result",
		},
		[]string{"provider", "result"},
	)
)

// Request pipeline metrics
var (
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexgen_validations_total",
			Help: "Total number of request validations by result",
		},
		[]string{"result"},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexgen_status_transitions_total",
			Help: "Total number of contract status transitions by target status",
		},
		[]string{"status"},
	)
)

// HTTP metrics
var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexgen_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lexgen_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// State metrics
var (
	RulesLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lexgen_rules_loaded",
			Help: "Number of loaded rule entries by kind (jurisdiction, contract_type)",
		},
		[]string{"kind"},
	)
)
