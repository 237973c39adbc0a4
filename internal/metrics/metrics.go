// Package metrics exposes the pipeline's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docintake"

// Metrics holds the collectors on a private registry. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	objects     *prometheus.CounterVec
	analysis    prometheus.Histogram
	fields      prometheus.Counter
	diagnostics *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	workItems   prometheus.Gauge
	skipped     *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		objects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_total",
			Help:      "Objects handled by the analysis trigger, by outcome.",
		}, []string{"outcome"}),
		analysis: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Latency of document analysis calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		fields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_extracted_total",
			Help:      "Key/value fields written to extraction records.",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_diagnostics_total",
			Help:      "Blocks the extractor skipped or degraded, by kind.",
		}, []string{"kind"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload requests, by result code.",
		}, []string{"code"}),
		workItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "work_items",
			Help:      "Work items returned by the last dashboard listing.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "work_item_records_skipped_total",
			Help:      "Extraction records left out of a work-item listing, by reason.",
		}, []string{"reason"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
	}
	m.registry.MustRegister(
		m.objects, m.analysis, m.fields, m.diagnostics, m.uploads, m.workItems, m.skipped, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveObject(outcome string) {
	if m == nil {
		return
	}
	m.objects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAnalysis(d time.Duration) {
	if m == nil {
		return
	}
	m.analysis.Observe(d.Seconds())
}

func (m *Metrics) AddFields(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.fields.Add(float64(n))
}

func (m *Metrics) ObserveDiagnostic(kind string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveUpload(code string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(code).Inc()
}

func (m *Metrics) SetWorkItems(n int) {
	if m == nil {
		return
	}
	m.workItems.Set(float64(n))
}

func (m *Metrics) ObserveSkippedRecord(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRequest(route, method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
