// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder is the metrics surface used by the service, storage, scheduler
// and HTTP layers.
type Recorder interface {
	RecordOperation(kind, op, outcome string)
	RecordStorageLatency(op string, d time.Duration)
	RecordOrphansSwept(kind string, n int)
	RecordSeedImport(kind string, created, skipped int)
	RecordHTTPRequest(method, route string, status int, d time.Duration)
	RecordRateLimited(scope string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	operations     *prometheus.CounterVec
	storageLatency *prometheus.HistogramVec
	orphansSwept   *prometheus.CounterVec
	seedImported   *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	rateLimited    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devure_content_operations_total",
			Help: "Content service operations by kind, operation and outcome.",
		}, []string{"kind", "op", "outcome"}),
		storageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devure_object_store_latency_seconds",
			Help:    "Object store call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		orphansSwept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devure_orphans_swept_total",
			Help: "Orphaned content blobs deleted by the sweeper.",
		}, []string{"kind"}),
		seedImported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devure_seed_items_total",
			Help: "Seed items processed by kind and result.",
		}, []string{"kind", "result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devure_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devure_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devure_rate_limited_total",
			Help: "Requests rejected by a rate limit, by scope.",
		}, []string{"scope"}),
	}

	reg.MustRegister(
		c.operations,
		c.storageLatency,
		c.orphansSwept,
		c.seedImported,
		c.httpRequests,
		c.httpLatency,
		c.rateLimited,
	)

	return c
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (c *Collector) RecordOperation(kind, op, outcome string) {
	c.operations.WithLabelValues(kind, op, outcome).Inc()
}

func (c *Collector) RecordStorageLatency(op string, d time.Duration) {
	c.storageLatency.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) RecordOrphansSwept(kind string, n int) {
	c.orphansSwept.WithLabelValues(kind).Add(float64(n))
}

func (c *Collector) RecordSeedImport(kind string, created, skipped int) {
	c.seedImported.WithLabelValues(kind, "created").Add(float64(created))
	c.seedImported.WithLabelValues(kind, "skipped").Add(float64(skipped))
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordRateLimited(scope string) {
	c.rateLimited.WithLabelValues(scope).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordOperation(string, string, string)               {}
func (Nop) RecordStorageLatency(string, time.Duration)           {}
func (Nop) RecordOrphansSwept(string, int)                       {}
func (Nop) RecordSeedImport(string, int, int)                    {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordRateLimited(string)                             {}
