// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studentsync"

// Metrics implements the observers of the timeline, ai, calendar and push packages.
type Metrics struct {
	registry *prometheus.Registry

	extractions    *prometheus.CounterVec
	extractionDur  *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	aggregationDur prometheus.Summary
	timelineItems  prometheus.Gauge
	calendarWrites *prometheus.CounterVec
	pushSends      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.extractions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extractions_total",
		Help:      "Text model calls by provider and outcome",
	}, []string{"provider", "outcome"})
	m.extractionDur = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Time spent waiting for the text model, retries included",
		Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 40},
	}, []string{"provider"})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "detection_cache_lookups_total",
		Help:      "Detection cache lookups by result",
	}, []string{"result"})
	m.aggregationDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "aggregation_duration_seconds",
		Help:      "Time spent building a timeline",
	})
	m.timelineItems = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "timeline_items",
		Help:      "Number of items in the last built timeline",
	})
	m.calendarWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calendar_writes_total",
		Help:      "Calendar event inserts by success",
	}, []string{"success"})
	m.pushSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_notifications_total",
		Help:      "Web push deliveries by outcome",
	}, []string{"outcome"})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.extractions, m.extractionDur, m.cacheLookups,
		m.aggregationDur, m.timelineItems, m.calendarWrites, m.pushSends,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveExtraction(provider, outcome string, d time.Duration) {
	if provider == "" {
		provider = "none"
	}
	m.extractions.WithLabelValues(provider, outcome).Inc()
	if d > 0 {
		m.extractionDur.WithLabelValues(provider).Observe(d.Seconds())
	}
}

func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAggregation(d time.Duration, items int) {
	m.aggregationDur.Observe(d.Seconds())
	m.timelineItems.Set(float64(items))
}

func (m *Metrics) ObserveCalendarWrite(success bool) {
	m.calendarWrites.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (m *Metrics) ObservePush(outcome string) {
	m.pushSends.WithLabelValues(outcome).Inc()
}
