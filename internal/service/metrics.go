package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Time spent evaluating catalog queries",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"sort", "outcome"},
	)

	queryResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_query_results",
			Help:    "Number of products matched by catalog queries across all pages",
			Buckets: []float64{0, 1, 5, 12, 25, 50, 100, 250, 1000},
		},
	)

	catalogProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Number of products in the loaded catalog",
		},
	)

	engagementSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_engagement_submissions_total",
			Help: "Optimistic engagement submissions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_search_sessions_active",
			Help: "Number of open search sessions",
		},
	)
)
