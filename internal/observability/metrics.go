package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dispatch outcome label values.
const (
	OutcomeMatched   = "matched"
	OutcomeNoMatch   = "no_match"
	OutcomeAmbiguous = "ambiguous"
	OutcomeError     = "error"
)

// Metrics holds all Prometheus metrics for the dispatcher.
type Metrics struct {
	dispatchTotal     *prometheus.CounterVec
	dispatchDuration  prometheus.Histogram
	dispatchCandidate prometheus.Histogram
	indexBuilds       prometheus.Counter
	indexBuildSeconds prometheus.Histogram
	indexEndpoints    prometheus.Gauge
	indexVersion      prometheus.Gauge
	cacheLookups      *prometheus.CounterVec
	buildInfo         *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewMetrics creates a new Metrics instance on a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dispatcher"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of endpoint selections by outcome",
		},
		[]string{"outcome"},
	)

	m.dispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Endpoint selection duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
	)

	m.dispatchCandidate = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_candidates",
			Help:      "Number of route-value candidates per selection",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	m.indexBuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "builds_total",
			Help:      "Total number of candidate index builds",
		},
	)

	m.indexBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "build_duration_seconds",
			Help:      "Candidate index build duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	m.indexEndpoints = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "endpoints",
			Help:      "Number of endpoints in the current candidate index",
		},
	)

	m.indexVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "collection_version",
			Help:      "Endpoint collection version of the current candidate index",
		},
	)

	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "constraint_cache",
			Name:      "lookups_total",
			Help:      "Constraint resolution cache lookups by result",
		},
		[]string{"result"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.registry.MustRegister(
		m.dispatchTotal,
		m.dispatchDuration,
		m.dispatchCandidate,
		m.indexBuilds,
		m.indexBuildSeconds,
		m.indexEndpoints,
		m.indexVersion,
		m.cacheLookups,
		m.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordDispatch records one endpoint selection.
func (m *Metrics) RecordDispatch(outcome string, candidates int, duration time.Duration) {
	m.dispatchTotal.WithLabelValues(outcome).Inc()
	m.dispatchCandidate.Observe(float64(candidates))
	m.dispatchDuration.Observe(duration.Seconds())
}

// RecordIndexBuild records a candidate index build.
func (m *Metrics) RecordIndexBuild(version uint64, endpoints int, duration time.Duration) {
	m.indexBuilds.Inc()
	m.indexBuildSeconds.Observe(duration.Seconds())
	m.indexEndpoints.Set(float64(endpoints))
	m.indexVersion.Set(float64(version))
}

// RecordCacheLookup records a constraint resolution cache lookup.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
