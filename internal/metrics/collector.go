package metrics

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthProvider reports the health of named daemon components.
type HealthProvider interface {
	ComponentHealthy() map[string]bool
}

// Collector periodically copies component health into the ComponentStatus gauge.
type Collector struct {
	mu       sync.Mutex
	provider HealthProvider
	interval time.Duration
	stopCh   chan struct{}
	running  bool
}

// NewCollector creates a new metrics collector.
func NewCollector(provider HealthProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start records daemon info and begins periodic collection.
func (c *Collector) Start(ctx context.Context, version string) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	DaemonStartTime.Set(float64(time.Now().Unix()))
	DaemonInfo.WithLabelValues(version, runtime.Version()).Set(1)

	c.collect()
	go c.run(ctx, stopCh)

	return nil
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	close(c.stopCh)
	c.running = false
}

func (c *Collector) run(ctx context.Context, stopCh <-chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	for name, healthy := range c.provider.ComponentHealthy() {
		if healthy {
			ComponentStatus.WithLabelValues(name).Set(1)
		} else {
			ComponentStatus.WithLabelValues(name).Set(0)
		}
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a handler for a specific registry.
func HandlerFor(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordWorkerTick records one worker tick.
func RecordWorkerTick(worker string, duration time.Duration, err error) {
	WorkerTickDuration.WithLabelValues(worker).Observe(duration.Seconds())
	if err != nil {
		WorkerTicksTotal.WithLabelValues(worker, "failure").Inc()
		return
	}
	WorkerTicksTotal.WithLabelValues(worker, "success").Inc()
	WorkerLastSuccess.WithLabelValues(worker).SetToCurrentTime()
}

// RecordIncidentAction records a reconciliation decision.
func RecordIncidentAction(action string) {
	IncidentActionsTotal.WithLabelValues(action).Inc()
}

// RecordCollaboratorRequest records a Zabbix or Cachet API request.
func RecordCollaboratorRequest(collaborator, operation string, duration time.Duration, err error) {
	CollaboratorRequestsTotal.WithLabelValues(collaborator, operation).Inc()
	CollaboratorDuration.WithLabelValues(collaborator, operation).Observe(duration.Seconds())
	if err != nil {
		CollaboratorErrorsTotal.WithLabelValues(collaborator, operation).Inc()
	}
}

// RecordReconcileRestart records a reconciliation loop restart.
func RecordReconcileRestart(mapped int) {
	ReconcileRestartsTotal.Inc()
	MappedComponents.Set(float64(mapped))
}

// RecordMetricPoint records an uptime point written to the status page.
func RecordMetricPoint() {
	MetricPointsTotal.Inc()
}
