// Package uptime mirrors Zabbix SLA figures into Cachet metrics.
package uptime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leefowlercu/statusmirror/internal/cachet"
	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/metrics"
	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

// WorkerName labels the metrics loop in logs and metrics.
const WorkerName = "uptime"

// Monitor is the part of the monitoring system the mirror reads.
type Monitor interface {
	ServiceByName(ctx context.Context, name string) (zabbix.Service, error)
	SLA(ctx context.Context, serviceIDs []string, from, to time.Time) (map[string]zabbix.SLA, error)
}

// StatusPage is the part of the status page the mirror writes.
type StatusPage interface {
	Metrics(ctx context.Context) ([]cachet.Metric, error)
	CreateMetric(ctx context.Context, m cachet.NewMetric) (cachet.Metric, error)
	AddMetricPoint(ctx context.Context, metricID int, value float64, ts time.Time) error
}

// Binding ties a monitored service to the metric that charts its uptime.
type Binding struct {
	ServiceID   string `json:"service_id" yaml:"service_id"`
	ServiceName string `json:"service_name" yaml:"service_name"`
	MetricID    int    `json:"metric_id" yaml:"metric_id"`
}

// MetricName returns the name of the uptime metric of a service.
func MetricName(service string) string {
	return service + " Uptime"
}

// Bind resolves each service name and finds or creates its uptime metric.
// An unknown service name is a configuration error.
func Bind(ctx context.Context, monitor Monitor, page StatusPage, names []string, logger *slog.Logger) ([]Binding, error) {
	if logger == nil {
		logger = slog.Default()
	}

	existing, err := page.Metrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics; %w", err)
	}
	byName := make(map[string]cachet.Metric, len(existing))
	for _, m := range existing {
		if _, dup := byName[m.Name]; !dup {
			byName[m.Name] = m
		}
	}

	bindings := make([]Binding, 0, len(names))
	for _, name := range names {
		svc, err := monitor.ServiceByName(ctx, name)
		if err != nil {
			if errors.Is(err, zabbix.ErrNotFound) {
				return nil, fmt.Errorf("metric service %q not found; %w", name, config.ErrMisconfigured)
			}
			return nil, fmt.Errorf("failed to look up metric service %q; %w", name, err)
		}
		if !svc.ShowSLA {
			logger.Warn("service does not calculate SLA; uptime will read as zero",
				"service", name,
				"service_id", svc.ID,
			)
		}

		metric, ok := byName[MetricName(name)]
		if !ok {
			metric, err = page.CreateMetric(ctx, cachet.NewMetric{
				Name:         MetricName(name),
				Description:  fmt.Sprintf("Uptime chart for %s service", name),
				Suffix:       "Percent",
				DefaultValue: 0,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create uptime metric for %q; %w", name, err)
			}
			byName[metric.Name] = metric
		}

		bindings = append(bindings, Binding{
			ServiceID:   svc.ID,
			ServiceName: name,
			MetricID:    metric.ID,
		})
	}
	return bindings, nil
}

// Mirror periodically copies SLA values of bound services into metric points.
type Mirror struct {
	monitor  Monitor
	page     StatusPage
	bindings []Binding
	interval time.Duration
	now      func() time.Time
	onTick   func(error)
	logger   *slog.Logger
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the mirror logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mirror) {
		m.logger = l
	}
}

// WithTickHook registers fn to be called after every tick in Run.
func WithTickHook(fn func(error)) Option {
	return func(m *Mirror) {
		m.onTick = fn
	}
}

// NewMirror creates a mirror reporting over windows of length interval.
func NewMirror(monitor Monitor, page StatusPage, bindings []Binding, interval time.Duration, opts ...Option) *Mirror {
	m := &Mirror{
		monitor:  monitor,
		page:     page,
		bindings: bindings,
		interval: interval,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", WorkerName)
	return m
}

// Bindings returns the service to metric bindings.
func (m *Mirror) Bindings() []Binding {
	return m.bindings
}

// Tick queries the SLA of every bound service over the trailing window and
// appends one point per metric.
func (m *Mirror) Tick(ctx context.Context) error {
	if len(m.bindings) == 0 {
		return nil
	}

	to := m.now()
	from := to.Add(-m.interval)

	ids := make([]string, 0, len(m.bindings))
	for _, b := range m.bindings {
		ids = append(ids, b.ServiceID)
	}

	slas, err := m.monitor.SLA(ctx, ids, from, to)
	if err != nil {
		return fmt.Errorf("failed to query SLA; %w", err)
	}

	for _, b := range m.bindings {
		sla, ok := slas[b.ServiceID]
		if !ok {
			return fmt.Errorf("no SLA data for service %q (id %s)", b.ServiceName, b.ServiceID)
		}
		ts := sla.To
		if ts.IsZero() {
			ts = to
		}
		if err := m.page.AddMetricPoint(ctx, b.MetricID, sla.Value, ts); err != nil {
			return fmt.Errorf("failed to add point to metric %d for service %q; %w", b.MetricID, b.ServiceName, err)
		}
		metrics.RecordMetricPoint()
		m.logger.Debug("uptime point added",
			"service", b.ServiceName,
			"metric_id", b.MetricID,
			"value", sla.Value,
		)
	}
	return nil
}

// Run calls Tick every interval until ctx is cancelled.
// Failed ticks are logged and retried on the next interval.
func (m *Mirror) Run(ctx context.Context) error {
	m.logger.Info("uptime mirror started", "services", len(m.bindings), "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		err := m.Tick(ctx)
		metrics.RecordWorkerTick(WorkerName, time.Since(start), err)
		if m.onTick != nil {
			m.onTick(err)
		}
		if err != nil && ctx.Err() == nil {
			m.logger.Error("uptime tick failed", "error", err)
		}

		select {
		case <-ctx.Done():
			m.logger.Info("uptime mirror stopped")
			return nil
		case <-ticker.C:
		}
	}
}
