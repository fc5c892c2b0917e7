package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector junta las métricas del frontend. Implementa listing.Recorder y
// adoption.Recorder.
type Collector struct {
	listingLoads   *prometheus.CounterVec
	listingLatency prometheus.Histogram
	actions        *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
	rateLimited    prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		listingLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petweb_listing_loads_total",
			Help: "Listing loads by outcome (ok, stale, failed).",
		}, []string{"outcome"}),
		listingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "petweb_listing_load_seconds",
			Help:    "Latency of listing loads against the catalog source.",
			Buckets: prometheus.DefBuckets,
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petweb_actions_total",
			Help: "User actions (apply, delete) by outcome.",
		}, []string{"action", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "petweb_http_requests_total",
			Help: "HTTP requests served by method and status code.",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "petweb_http_request_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "petweb_rate_limited_total",
			Help: "Requests rejected by the action rate limiter.",
		}),
	}

	reg.MustRegister(
		c.listingLoads,
		c.listingLatency,
		c.actions,
		c.httpRequests,
		c.httpLatency,
		c.rateLimited,
	)

	return c
}

func (c *Collector) ListingLoaded(outcome string, seconds float64) {
	c.listingLoads.WithLabelValues(outcome).Inc()
	c.listingLatency.Observe(seconds)
}

func (c *Collector) ActionCompleted(action, outcome string) {
	c.actions.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) RecordHTTP(method string, statusCode int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(d.Seconds())
}

func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// Handler expone el endpoint de scrape.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
