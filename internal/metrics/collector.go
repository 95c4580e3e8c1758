// Package metrics exposes prediction and HTTP front-end measurements to
// Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/genome360-risk-client/internal/domain"
)

const namespace = "genome360"

// Collector owns every metric on its own registry so tests and multiple
// instances never collide on the default registerer.
type Collector struct {
	registry *prometheus.Registry

	submissions  prometheus.Counter
	resolutions  *prometheus.CounterVec
	discarded    prometheus.Counter
	latency      prometheus.Histogram
	inFlight     prometheus.Gauge
	fieldUpdates *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector registers all metrics plus the Go and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_submissions_total",
			Help:      "Prediction requests submitted.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_resolutions_total",
			Help:      "Prediction outcomes by status.",
		}, []string{"status"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_discarded_total",
			Help:      "Outcomes dropped because a newer submission exists.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time from submit to resolution.",
			Buckets:   prometheus.DefBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "prediction_in_flight",
			Help:      "Prediction calls awaiting a reply.",
		}),
		fieldUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_updates_total",
			Help:      "Input field edits by field and outcome.",
		}, []string{"field", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP front-end requests.",
		}, []string{"method", "route", "code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP front-end request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.submissions, c.resolutions, c.discarded, c.latency, c.inFlight,
		c.fieldUpdates, c.httpRequests, c.httpLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Submitted counts one submission.
func (c *Collector) Submitted() {
	c.submissions.Inc()
}

// Resolved counts an outcome and observes its latency.
func (c *Collector) Resolved(status domain.ResultStatus, took time.Duration) {
	c.resolutions.WithLabelValues(string(status)).Inc()
	c.latency.Observe(took.Seconds())
}

// Discarded counts a dropped out-of-order outcome.
func (c *Collector) Discarded() {
	c.discarded.Inc()
}

// InFlight sets the outstanding call gauge.
func (c *Collector) InFlight(n int) {
	c.inFlight.Set(float64(n))
}

// FieldUpdated counts an edit attempt. Only the field name is recorded.
func (c *Collector) FieldUpdated(field domain.FieldName, ok bool) {
	outcome := "accepted"
	if !ok {
		outcome = "rejected"
	}
	c.fieldUpdates.WithLabelValues(string(field), outcome).Inc()
}

// HTTPRequest records one served request.
func (c *Collector) HTTPRequest(method, route string, code int, took time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(took.Seconds())
}
