// Package observability wires structured logging and Prometheus
// instrumentation. Log output is never program logic; nothing downstream may
// depend on it.
package observability

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "funnel_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_loads_total",
		Help: "Data loads by ingestion mode and outcome.",
	}, []string{"mode", "status"})

	RecordsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_records_loaded_total",
		Help: "Records obtained per logical set on successful loads.",
	}, []string{"set"})
)

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
