// Package metrics holds the prometheus collectors exported on /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures response time
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	// NodesRendered counts rendered content nodes by mode (root, expanded, collapsed)
	NodesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_nodes_rendered_total",
			Help: "Total number of content nodes rendered, by render mode",
		},
		[]string{"mode"},
	)

	// CacheResults counts response cache lookups by result (hit, miss, bypass)
	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_cache_results_total",
			Help: "Total number of response cache lookups, by result",
		},
		[]string{"result"},
	)
)
