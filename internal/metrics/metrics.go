// Package metrics provides Prometheus instrumentation for biome.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every biome collector, registered on its own registry so
// tests and multiple services do not collide.
type Metrics struct {
	registry *prometheus.Registry

	watchEvents     *prometheus.CounterVec
	trackedNodes    prometheus.Gauge
	overallEntropy  prometheus.Gauge
	overallHealth   prometheus.Gauge
	zoneCount       *prometheus.GaugeVec
	moves           *prometheus.CounterVec
	scanDuration    prometheus.Histogram
	scanFiles       prometheus.Counter
	duplicateGroups prometheus.Gauge
	jobsFinished    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		watchEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biome_watch_events_total",
				Help: "Filesystem events dispatched, by kind",
			},
			[]string{"kind"},
		),
		trackedNodes: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "biome_tracked_nodes",
				Help: "Number of files currently tracked",
			},
		),
		overallEntropy: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "biome_overall_entropy",
				Help: "Mean entropy across tracked files",
			},
		),
		overallHealth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "biome_overall_health",
				Help: "Mean health across tracked files",
			},
		),
		zoneCount: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "biome_zones",
				Help: "Number of zones, by status",
			},
			[]string{"status"},
		),
		moves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biome_organize_files_total",
				Help: "Files handled by organize, by outcome",
			},
			[]string{"outcome"},
		),
		scanDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "biome_scan_duration_seconds",
				Help:    "Directory scan duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		scanFiles: f.NewCounter(
			prometheus.CounterOpts{
				Name: "biome_scan_files_total",
				Help: "Files visited by directory scans",
			},
		),
		duplicateGroups: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "biome_duplicate_groups",
				Help: "Duplicate groups found by the last duplicate scan",
			},
		),
		jobsFinished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biome_jobs_finished_total",
				Help: "Background jobs that reached a terminal state",
			},
			[]string{"type", "status"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "biome_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "biome_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvent counts one dispatched watch event.
func (m *Metrics) RecordEvent(kind string) {
	m.watchEvents.WithLabelValues(kind).Inc()
}

// SetSummary publishes the aggregate figures of a summary recompute.
func (m *Metrics) SetSummary(tracked int, entropy, health float64, zonesByStatus map[string]int) {
	m.trackedNodes.Set(float64(tracked))
	m.overallEntropy.Set(entropy)
	m.overallHealth.Set(health)
	m.zoneCount.Reset()
	for status, n := range zonesByStatus {
		m.zoneCount.WithLabelValues(status).Set(float64(n))
	}
}

// RecordMove counts one organize outcome.
func (m *Metrics) RecordMove(outcome string) {
	m.moves.WithLabelValues(outcome).Inc()
}

// RecordScan observes one directory scan.
func (m *Metrics) RecordScan(d time.Duration, files int) {
	m.scanDuration.Observe(d.Seconds())
	m.scanFiles.Add(float64(files))
}

// SetDuplicateGroups records the result of a duplicate scan.
func (m *Metrics) SetDuplicateGroups(n int) {
	m.duplicateGroups.Set(float64(n))
}

// RecordJob counts one finished job.
func (m *Metrics) RecordJob(jobType, status string) {
	m.jobsFinished.WithLabelValues(jobType, status).Inc()
}

// RecordRequest observes one HTTP request.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
