// Package metrics provides Prometheus metrics for the tree server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tree_server_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tree_server_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Path probes, one per classified path (marker lookups not counted)
	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tree_server_probes_total",
			Help: "Total number of classified filesystem paths by resulting kind",
		},
		[]string{"kind"},
	)

	listingEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tree_server_listing_entries",
			Help:    "Number of entries per rendered directory listing",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	listingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tree_server_listing_duration_seconds",
			Help:    "Time to enumerate and classify a directory listing",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordRequest records a completed HTTP request.
// Methods other than GET and HEAD share the "OTHER" label.
func RecordRequest(method string, status int, duration time.Duration) {
	method = methodLabel(method)
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return method
	default:
		return "OTHER"
	}
}

// RecordProbe records one classified path.
func RecordProbe(kind string) {
	probesTotal.WithLabelValues(kind).Inc()
}

// RecordListing records the size and build time of a listing.
func RecordListing(entries int, duration time.Duration) {
	listingEntries.Observe(float64(entries))
	listingDuration.Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
