package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry and metrics.
// Each collector registers into its own registry, so any number of them can
// live in one process without duplicate registration.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	eventsPublished  prometheus.Counter
	eventsDropped    prometheus.Counter
	eventsFailed     prometheus.Counter
	queueDepth       prometheus.Gauge
	publisherWorkers *prometheus.GaugeVec
}

// NewCollector creates a new Prometheus metrics collector
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "app_requests_total",
				Help: "Total requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "app_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		eventsPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "app_events_published_total",
				Help: "Total number of request events published to the event bus",
			},
		),
		eventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "app_events_dropped_total",
				Help: "Total number of request events dropped because the queue was full",
			},
		),
		eventsFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "app_events_failed_total",
				Help: "Total number of request events the event bus rejected",
			},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "app_publisher_queue_depth",
				Help: "Current number of request events waiting to be published",
			},
		),
		publisherWorkers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "app_publisher_workers",
				Help: "Number of event publisher workers by state",
			},
			[]string{"state"},
		),
	}
}

// RecordRequest counts a served request and observes its duration
func (c *Collector) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	c.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	c.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// IncEventsPublished increments the count of published request events
func (c *Collector) IncEventsPublished() {
	c.eventsPublished.Inc()
}

// IncEventsDropped increments the count of dropped request events
func (c *Collector) IncEventsDropped() {
	c.eventsDropped.Inc()
}

// IncEventsFailed increments the count of request events the bus rejected
func (c *Collector) IncEventsFailed() {
	c.eventsFailed.Inc()
}

// SetQueueDepth sets the current depth of the publisher queue
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

// RecordPublisherStatus records publisher worker states
func (c *Collector) RecordPublisherStatus(idle, busy, stopped int) {
	c.publisherWorkers.WithLabelValues("idle").Set(float64(idle))
	c.publisherWorkers.WithLabelValues("busy").Set(float64(busy))
	c.publisherWorkers.WithLabelValues("stopped").Set(float64(stopped))
}

// Registry returns the registry backing this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the text exposition handler for this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		Registry: c.registry,
	})
}
