// Package metrics defines the Prometheus instruments for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	GenerativeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_generative_requests_total",
		Help: "Total chat-completion requests by outcome",
	}, []string{"model", "status"})

	GenerativeRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_generative_request_duration_seconds",
		Help:    "Chat-completion request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"model"})

	OptimizationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_optimization_runs_total",
		Help: "Optimization cycles by outcome",
	}, []string{"status"})

	OptimizationImprovement = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptforge_optimization_improvement",
		Help:    "Clamped improvement score of completed runs",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
	})
)
