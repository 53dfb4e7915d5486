// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestArchivesTotal        *prometheus.CounterVec
	ingestBytesTotal           *prometheus.CounterVec
	ingestFilesTotal           *prometheus.CounterVec
	etlFilesTotal              *prometheus.CounterVec
	etlRecordsTotal            *prometheus.CounterVec
	etlActiveWorkers           prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	monitorAlertsTotal         prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		ingestArchivesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_archives_total",
				Help: "Total number of archives processed, labeled by partner and status.",
			},
			[]string{"partner", "status"},
		)

		ingestBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_bytes_total",
				Help: "Total number of archive bytes fetched, labeled by partner.",
			},
			[]string{"partner"},
		)

		ingestFilesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_files_total",
				Help: "Total number of extracted files stored, labeled by partner.",
			},
			[]string{"partner"},
		)

		etlFilesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_files_total",
				Help: "Total number of files processed by ETL workers, labeled by status.",
			},
			[]string{"status"},
		)

		etlRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etl_records_total",
				Help: "Total number of client records written, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		etlActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "etl_active_workers",
				Help: "Number of ETL workers currently processing a file.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		monitorAlertsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "monitor_alerts_total",
				Help: "Total number of health alerts raised by the monitor.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveArchive records the outcome of one archive ingestion.
func ObserveArchive(partner, status string, bytesFetched int) {
	ingestArchivesTotal.WithLabelValues(partner, status).Inc()
	if bytesFetched > 0 {
		ingestBytesTotal.WithLabelValues(partner).Add(float64(bytesFetched))
	}
}

// ObserveStoredFiles counts extracted files published for ETL.
func ObserveStoredFiles(partner string, count int) {
	if count > 0 {
		ingestFilesTotal.WithLabelValues(partner).Add(float64(count))
	}
}

// ObserveETLFile increments the per-file ETL counter for the given status.
func ObserveETLFile(status string) {
	etlFilesTotal.WithLabelValues(status).Inc()
}

// ObserveRecord increments the record counter for the given outcome.
func ObserveRecord(outcome string) {
	etlRecordsTotal.WithLabelValues(outcome).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	etlActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	etlActiveWorkers.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAlert increments the monitor alert counter.
func ObserveAlert() {
	monitorAlertsTotal.Inc()
}
