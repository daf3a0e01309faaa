// Package metrics provides Prometheus metrics for the statusmirror daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "statusmirror"
)

// Worker metrics track the three polling loops.
var (
	// WorkerTicksTotal is the total number of worker ticks by worker and result.
	WorkerTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_ticks_total",
		Help:      "Total number of worker ticks",
	}, []string{"worker", "result"})

	// WorkerTickDuration is a histogram of tick duration in seconds.
	WorkerTickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "worker_tick_duration_seconds",
		Help:      "Duration of worker ticks in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"worker"})

	// WorkerLastSuccess is the unix timestamp of the last successful tick.
	WorkerLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful worker tick",
	}, []string{"worker"})
)

// Reconciliation metrics track incident and topology state.
var (
	// IncidentActionsTotal counts reconciliation decisions by action.
	IncidentActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incident_actions_total",
		Help:      "Total number of reconciliation decisions by action",
	}, []string{"action"})

	// MappedComponents is the number of components in the current mapping snapshot.
	MappedComponents = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mapped_components",
		Help:      "Number of components in the current mapping snapshot",
	})

	// ReconcileRestartsTotal counts reconciliation loop restarts caused by topology drift.
	ReconcileRestartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_restarts_total",
		Help:      "Total number of reconciliation loop restarts",
	})

	// MetricPointsTotal counts uptime points written to the status page.
	MetricPointsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "metric_points_total",
		Help:      "Total number of uptime metric points written",
	})
)

// Collaborator metrics track calls to Zabbix and Cachet.
var (
	// CollaboratorRequestsTotal is the total number of API requests.
	CollaboratorRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collaborator_requests_total",
		Help:      "Total number of collaborator API requests",
	}, []string{"collaborator", "operation"})

	// CollaboratorErrorsTotal is the total number of failed API requests.
	CollaboratorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "collaborator_errors_total",
		Help:      "Total number of collaborator API errors",
	}, []string{"collaborator", "operation"})

	// CollaboratorDuration is a histogram of request duration in seconds.
	CollaboratorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "collaborator_request_duration_seconds",
		Help:      "Duration of collaborator API requests in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
	}, []string{"collaborator", "operation"})
)

// Daemon metrics track daemon health and uptime.
var (
	// DaemonInfo provides daemon version and build information.
	DaemonInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daemon_info",
		Help:      "Daemon version and build information",
	}, []string{"version", "go_version"})

	// DaemonStartTime is the unix timestamp when the daemon started.
	DaemonStartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "daemon_start_time_seconds",
		Help:      "Unix timestamp when the daemon started",
	})

	// ComponentStatus tracks the health status of daemon components.
	ComponentStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "component_status",
		Help:      "Health status of daemon components (1=healthy, 0=unhealthy)",
	}, []string{"component"})
)
