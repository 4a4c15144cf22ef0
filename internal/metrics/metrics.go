package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_http_requests_total",
		Help: "HTTP requests served, by route pattern and status code.",
	}, []string{"route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipstream_http_request_duration_seconds",
		Help:    "Time from request receipt to response.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"route"})

	TokensIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_tokens_issued_total",
		Help: "Session token pairs issued, by reason (issue, refresh).",
	}, []string{"reason"})

	RefreshRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_refresh_rejected_total",
		Help: "Refresh attempts rejected, by reason (invalid, reuse, race).",
	}, []string{"reason"})

	TogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_toggles_total",
		Help: "Relationship toggles, by edge kind and resulting state.",
	}, []string{"edge", "active"})

	OwnershipDeniedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipstream_ownership_denied_total",
		Help: "Mutations rejected because the caller does not own the resource.",
	}, []string{"resource"})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipstream_rate_limited_total",
		Help: "Requests rejected by the per-client rate limiter.",
	})
)
