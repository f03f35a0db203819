package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ingestion service.
type Metrics struct {
	// Scheduler metrics.
	JobRuns          *prometheus.CounterVec   // labels: job, outcome={success,error,panic}
	JobDuration      *prometheus.HistogramVec // labels: job
	SchedulerRunning prometheus.Gauge

	// Pipeline metrics.
	EventsFetched    *prometheus.CounterVec // labels: source
	FetchErrors      *prometheus.CounterVec // labels: source
	RecordsInserted  *prometheus.CounterVec // labels: hazard
	RecordsDuplicate *prometheus.CounterVec // labels: hazard
	StorageErrors    *prometheus.CounterVec // labels: hazard

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={found,empty,rejected,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Notification metrics.
	PushMessages  *prometheus.CounterVec // labels: outcome={success,failure}
	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.JobRuns,
		m.JobDuration,
		m.SchedulerRunning,
		m.EventsFetched,
		m.FetchErrors,
		m.RecordsInserted,
		m.RecordsDuplicate,
		m.StorageErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.PushMessages,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by job and outcome.",
		}, []string{"job", "outcome"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rtd",
			Name:      "job_duration_seconds",
			Help:      "Duration of a scheduled job execution.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 60, 180},
		}, []string{"job"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtd",
			Name:      "scheduler_running",
			Help:      "1 when the scheduler loop is active, 0 when shut down.",
		}),
		EventsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "events_fetched_total",
			Help:      "Candidate events emitted by source adapters.",
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "fetch_errors_total",
			Help:      "Source adapter fetch failures.",
		}, []string{"source"}),
		RecordsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "records_inserted_total",
			Help:      "RTD records newly inserted into storage.",
		}, []string{"hazard"}),
		RecordsDuplicate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "records_duplicate_total",
			Help:      "RTD records whose ID already existed in storage.",
		}, []string{"hazard"}),
		StorageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "storage_errors_total",
			Help:      "Conditional inserts that failed after retries.",
		}, []string{"hazard"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "geocode_requests_total",
			Help:      "Geocoding upstream requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "geocode_cache_total",
			Help:      "Enrichment cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rtd",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtd",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
		PushMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "push_messages_total",
			Help:      "Push messages handed to the transport by outcome.",
		}, []string{"outcome"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtd",
			Name:      "publish_errors_total",
			Help:      "Failed downstream publishes of inserted records.",
		}),
	}
}
