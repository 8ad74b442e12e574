// Package metrics declares the Prometheus collectors of the console and the dev API
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Console client metrics
	PendingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "console_pending_requests",
		Help: "The current number of outstanding requests tracked by the loading indicator.",
	})
	LoadingUnderflows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "console_loading_underflows_total",
		Help: "The total number of Hide calls made while no request was pending.",
	})
	RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_request_errors_total",
		Help: "The total number of failed API requests by error kind.",
	}, []string{"kind"})
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "console_token_refreshes_total",
		Help: "The total number of access token refresh attempts by outcome.",
	}, []string{"outcome"})

	// Dev API metrics
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devapi_http_requests_total",
		Help: "The total number of HTTP requests served by status code class.",
	}, []string{"method", "status"})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "devapi_http_request_duration_seconds",
		Help:    "The latency of HTTP requests by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	HTTPPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devapi_http_panics_total",
		Help: "The total number of handler panics turned into 500 responses.",
	})
)

// Handler returns the HTTP handler exposing all registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
