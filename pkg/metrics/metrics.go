package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Allocation lifecycle metrics
	OrgansProcured      prometheus.Counter
	OrgansExpired       prometheus.Counter
	AllocationsCreated  prometheus.Counter
	AllocationsResolved *prometheus.CounterVec
	AllocationsExpired  prometheus.Counter
	SurgeriesScheduled  prometheus.Counter
	MatchRuns           prometheus.Counter
	MatchCandidates     prometheus.Histogram

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxQueueSize         prometheus.Gauge

	// Database metrics
	DatabaseOperations  *prometheus.CounterVec
	DatabaseLatency     *prometheus.HistogramVec
	DatabaseConnections prometheus.Gauge
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		OrgansProcured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "organs_procured_total",
			Help:      "Total number of organs registered after procurement",
		}),
		OrgansExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "organs_expired_total",
			Help:      "Total number of organs expired by the viability sweep",
		}),
		AllocationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "allocations_created_total",
			Help:      "Total number of allocation offers created",
		}),
		AllocationsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "allocations_resolved_total",
			Help:      "Total number of allocation offers resolved, by outcome",
		}, []string{"outcome"}),
		AllocationsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "allocations_expired_total",
			Help:      "Total number of allocation offers expired by the deadline sweep",
		}),
		SurgeriesScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "surgeries_scheduled_total",
			Help:      "Total number of transplant surgeries scheduled",
		}),
		MatchRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "match_runs_total",
			Help:      "Total number of matcher passes executed",
		}),
		MatchCandidates: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "match_candidates",
			Help:      "Number of candidates produced per matcher pass",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),

		// Outbox metrics
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_queue_size",
			Help:      "Current number of events in the outbox queue",
		}),

		// Database metrics
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DatabaseConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_connections",
			Help:      "Current number of database connections",
		}),
	}
}
