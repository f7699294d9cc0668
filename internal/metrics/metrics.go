// Package metrics exposes Prometheus collectors for projection, camera
// targeting, classification and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-exoplanets/internal/camera"
	"github.com/litescript/ls-exoplanets/internal/projector"
)

const namespace = "lsexo"

// Collector holds every application metric.
type Collector struct {
	registry *prometheus.Registry

	projectionsTotal   prometheus.Counter
	projectionDuration prometheus.Histogram
	pointsIncluded     prometheus.Gauge
	pointsExcluded     *prometheus.GaugeVec
	cameraLookups      *prometheus.CounterVec
	predictions        *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	requestsTotal      *prometheus.CounterVec
	wsClients          prometheus.Gauge
}

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh registry.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Collector{
		registry: reg,
		projectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projections_total",
			Help:      "Total number of catalog projections computed",
		}),
		projectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "projection_duration_seconds",
			Help:      "Time spent filtering and projecting the working set",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}),
		pointsIncluded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "points_included",
			Help:      "Planets placed by the last projection",
		}),
		pointsExcluded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "points_excluded",
			Help:      "Planets dropped by the last projection",
		}, []string{"reason"}),
		cameraLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "camera_lookups_total",
			Help:      "Camera targeting results by status",
		}, []string{"status"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Classifier predictions by label",
		}, []string{"label"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent serving HTTP requests",
		}, []string{"route", "method"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"route", "method", "status"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
	}

	reg.MustRegister(
		m.projectionsTotal,
		m.projectionDuration,
		m.pointsIncluded,
		m.pointsExcluded,
		m.cameraLookups,
		m.predictions,
		m.requestDuration,
		m.requestsTotal,
		m.wsClients,
	)

	return m
}

// Registry returns the registry the collectors live on.
func (m *Collector) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveProjection records one projection pass.
func (m *Collector) ObserveProjection(p projector.Projection, took time.Duration) {
	m.projectionsTotal.Inc()
	m.projectionDuration.Observe(took.Seconds())
	m.pointsIncluded.Set(float64(p.Included()))
	for reason, n := range p.ExclusionCounts() {
		m.pointsExcluded.WithLabelValues(reason.String()).Set(float64(n))
	}
}

// ObserveCamera records a targeting result.
func (m *Collector) ObserveCamera(status camera.Status) {
	m.cameraLookups.WithLabelValues(status.String()).Inc()
}

// RecordPrediction counts a classifier result.
func (m *Collector) RecordPrediction(label string) {
	m.predictions.WithLabelValues(label).Inc()
}

// RecordRequest observes an HTTP request.
func (m *Collector) RecordRequest(route, method string, status int, took time.Duration) {
	m.requestDuration.WithLabelValues(route, method).Observe(took.Seconds())
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// ClientConnected adjusts the websocket client gauge by delta.
func (m *Collector) ClientConnected(delta int) {
	m.wsClients.Add(float64(delta))
}

// Handler serves the registry in the Prometheus text format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
