package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCountMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tablevc",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of HTTP requests handled, by response status code and HTTP method",
	}, []string{"code", "method"})
	requestDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tablevc",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Histogram of time spent processing requests, by response status code and HTTP method",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"code", "method"})
	commitCountMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tablevc",
		Subsystem: "repo",
		Name:      "commits_total",
		Help:      "Count of commits created through the mutation endpoints",
	})
	scopeWaitMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tablevc",
		Subsystem: "repo",
		Name:      "scope_wait_seconds",
		Help:      "Histogram of time requests spent waiting for the branch scope gate",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	})
)
