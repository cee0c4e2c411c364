package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_recommendations_total",
			Help: "Recommendation requests served, by mode",
		},
		[]string{"type"},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_recommendation_fallbacks_total",
			Help: "Recommendation requests answered with defaults after a store failure",
		},
		[]string{"type"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_search_duration_seconds",
			Help:    "Search ranking latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	SearchDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_search_degraded_total",
			Help: "Search sub-queries that failed and were treated as empty",
		},
		[]string{"kind"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_response_cache_requests_total",
			Help: "Response cache lookups by family and result",
		},
		[]string{"family", "result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wardrobe_store_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	ImageTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_image_tasks_total",
			Help: "Background image processing tasks by outcome",
		},
		[]string{"outcome"},
	)
)
