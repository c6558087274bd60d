// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total recommendation lists served, by kind and cascade stage",
		},
		[]string{"kind", "stage"},
	)

	MLRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_engine_requests_total",
			Help: "Total requests to the ML scoring engine, by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	MLRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ml_engine_request_duration_seconds",
			Help: "Duration of ML engine round trips in seconds",
		},
		[]string{"endpoint"},
	)

	EventsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_events_logged_total",
			Help: "Total recommendation events appended, by item and event type",
		},
		[]string{"item_type", "event_type"},
	)

	MLBreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ml_engine_breaker_open",
			Help: "1 when the ML engine circuit breaker is open",
		},
	)
)
