// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Collection metrics
	SnapshotsCollected prometheus.Counter
	RowsIngested       prometheus.Counter
	CollectionErrors   *prometheus.CounterVec
	ProviderLatency    *prometheus.HistogramVec

	// Computation metrics
	RowsLoaded       prometheus.Counter
	MalformedRows    prometheus.Counter
	GroupsComputed   prometheus.Counter
	EmptyGroups      prometheus.Counter
	ResultsPersisted prometheus.Counter
	ComputeDuration  prometheus.Histogram

	// Health metrics
	LastSuccessfulSnapshot prometheus.Gauge
	LastSuccessfulRun      prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "maxpain_lab"
	}

	return &Metrics{
		// Collection metrics
		SnapshotsCollected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collect",
			Name:      "snapshots_collected_total",
			Help:      "Total number of option chain snapshots collected",
		}),
		RowsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collect",
			Name:      "rows_ingested_total",
			Help:      "Total number of option rows stored to database",
		}),
		CollectionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collect",
			Name:      "errors_total",
			Help:      "Total number of collection errors by stage",
		}, []string{"stage"}),
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collect",
			Name:      "provider_request_seconds",
			Help:      "Market data provider request latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Computation metrics
		RowsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compute",
			Name:      "rows_loaded_total",
			Help:      "Total number of option rows loaded for computation",
		}),
		MalformedRows: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compute",
			Name:      "malformed_rows_total",
			Help:      "Total number of malformed option rows skipped",
		}),
		GroupsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compute",
			Name:      "groups_computed_total",
			Help:      "Total number of max pain groups computed",
		}),
		EmptyGroups: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compute",
			Name:      "empty_groups_total",
			Help:      "Total number of groups omitted for lack of candidate strikes",
		}),
		ResultsPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "compute",
			Name:      "results_persisted_total",
			Help:      "Total number of max pain results persisted",
		}),
		ComputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compute",
			Name:      "run_duration_seconds",
			Help:      "Duration of one full pipeline run",
			Buckets:   prometheus.DefBuckets,
		}),

		// Health metrics
		LastSuccessfulSnapshot: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_snapshot_timestamp",
			Help:      "Unix timestamp of last successful snapshot collection",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
