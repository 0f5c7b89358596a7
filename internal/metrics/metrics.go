// Package metrics exposes Prometheus collectors for the news proxy.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	newsCacheLookupsTotal      *prometheus.CounterVec
	upstreamErrorsTotal        *prometheus.CounterVec
	uploadsTotal               *prometheus.CounterVec
	uploadBytesTotal           prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsproxy_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newsproxy_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route"},
		)

		newsCacheLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsproxy_cache_lookups_total",
				Help: "Total news cache lookups, labeled by outcome (hit, miss, stale).",
			},
			[]string{"status"},
		)

		upstreamErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsproxy_upstream_errors_total",
				Help: "Total upstream failures, labeled by error kind.",
			},
			[]string{"kind"},
		)

		uploadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsproxy_uploads_total",
				Help: "Total upload operations, labeled by operation and result.",
			},
			[]string{"op", "result"},
		)

		uploadBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "newsproxy_upload_bytes_total",
				Help: "Total bytes accepted by the upload endpoint.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveCacheLookup increments the cache lookup counter for the outcome.
func ObserveCacheLookup(status string) {
	if newsCacheLookupsTotal == nil {
		return
	}
	newsCacheLookupsTotal.WithLabelValues(status).Inc()
}

// ObserveUpstreamError increments the upstream error counter for the kind.
func ObserveUpstreamError(kind string) {
	if upstreamErrorsTotal == nil {
		return
	}
	upstreamErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveUpload increments the upload counter and, for accepted uploads,
// the byte counter.
func ObserveUpload(op, result string, bytes int64) {
	if uploadsTotal == nil {
		return
	}
	uploadsTotal.WithLabelValues(op, result).Inc()
	if bytes > 0 {
		uploadBytesTotal.Add(float64(bytes))
	}
}
