// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics provides Prometheus instrumentation for the Forkful API.
// Mount Middleware on the router and Handler at GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks how long each HTTP request takes, broken down
	// by method, route pattern, and status code.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forkful",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts all HTTP requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forkful",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks how many requests are currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "forkful",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})

	// ShoppingListCacheHits and ShoppingListCacheMisses track how often the
	// rendered shopping list is served from Valkey.
	ShoppingListCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "forkful",
		Subsystem: "cache",
		Name:      "shopping_list_hits_total",
		Help:      "Shopping list downloads served from cache.",
	})
	ShoppingListCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "forkful",
		Subsystem: "cache",
		Name:      "shopping_list_misses_total",
		Help:      "Shopping list downloads that hit the database.",
	})
)

// DefaultRegistry is the Prometheus registry used by the API.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	// Go runtime metrics (GC, goroutines, memory).
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	// OS process metrics (CPU, open FDs).
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		ShoppingListCacheHits,
		ShoppingListCacheMisses,
	)
}

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request duration, count, and in-flight gauge for every
// request. Uses the chi route pattern rather than the raw path so recipe
// UUIDs don't explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		RequestInFlight.Inc()
		defer RequestInFlight.Dec()

		rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rr, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		status := strconv.Itoa(rr.status)
		RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		RequestTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// Handler exposes the Prometheus metrics page. Mount on GET /metrics.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}
