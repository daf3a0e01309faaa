package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leefowlercu/statusmirror/internal/cachet"
	"github.com/leefowlercu/statusmirror/internal/metrics"
	"github.com/leefowlercu/statusmirror/internal/topology"
	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

// WorkerName labels the reconciliation loop in logs and metrics.
const WorkerName = "incidents"

// Monitor is the part of the monitoring system the engine reads.
type Monitor interface {
	Trigger(ctx context.Context, id string) (zabbix.Trigger, error)
	LastEvent(ctx context.Context, triggerID string) (zabbix.Event, error)
}

// StatusPage is the part of the status page the engine reads and writes.
type StatusPage interface {
	Component(ctx context.Context, id int) (cachet.Component, error)
	UpdateComponentStatus(ctx context.Context, id int, status cachet.ComponentStatus) (cachet.Component, error)
	LastIncident(ctx context.Context, componentID int) (cachet.Incident, error)
	CreateIncident(ctx context.Context, inc cachet.NewIncident) (cachet.Incident, error)
	UpdateIncident(ctx context.Context, id int, upd cachet.IncidentUpdate) (cachet.Incident, error)
}

// Action is the outcome of reconciling one mapping.
type Action string

const (
	ActionUnchanged      Action = "unchanged"
	ActionCreated        Action = "created"
	ActionUpdated        Action = "updated"
	ActionResolved       Action = "resolved"
	ActionComponentReset Action = "component_reset"
	ActionUnsupported    Action = "unsupported"
)

// Engine applies the incident state machine to every mapping of a snapshot.
type Engine struct {
	monitor    Monitor
	page       StatusPage
	composer   *Composer
	maxBackoff time.Duration
	onTick     func(error)
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithComposer sets the message composer.
func WithComposer(c *Composer) Option {
	return func(e *Engine) {
		e.composer = c
	}
}

// WithMaxBackoff caps the delay between failed ticks in Run.
func WithMaxBackoff(d time.Duration) Option {
	return func(e *Engine) {
		e.maxBackoff = d
	}
}

// WithTickHook registers fn to be called after every tick in Run.
func WithTickHook(fn func(error)) Option {
	return func(e *Engine) {
		e.onTick = fn
	}
}

// NewEngine creates an engine.
func NewEngine(monitor Monitor, page StatusPage, opts ...Option) *Engine {
	e := &Engine{
		monitor:    monitor,
		page:       page,
		composer:   NewComposer(nil),
		maxBackoff: 10 * time.Minute,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", WorkerName)
	return e
}

// Tick reconciles every mapping once, in order. The first failure aborts
// the tick so a component and its incident are never left half-applied.
func (e *Engine) Tick(ctx context.Context, snap topology.Snapshot) error {
	for _, m := range snap {
		action, err := e.Reconcile(ctx, m)
		if err != nil {
			return fmt.Errorf("failed to reconcile component %q (id %d, trigger %s); %w",
				m.ComponentName, m.ComponentID, m.TriggerID, err)
		}
		metrics.RecordIncidentAction(string(action))
	}
	return nil
}

// Run calls Tick every interval until ctx is cancelled. Cancellation is
// observed between ticks only; a tick in flight always runs to completion.
// Failed ticks are retried with exponential backoff.
func (e *Engine) Run(ctx context.Context, snap topology.Snapshot, interval time.Duration) {
	tickCtx := context.WithoutCancel(ctx)
	failures := 0

	for {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		err := e.Tick(tickCtx, snap)
		metrics.RecordWorkerTick(WorkerName, time.Since(start), err)
		if e.onTick != nil {
			e.onTick(err)
		}

		delay := interval
		if err != nil {
			failures++
			delay = backoff(interval, e.maxBackoff, failures)
			e.logger.Error("reconciliation tick failed",
				"error", err,
				"failures", failures,
				"retry_in", delay,
			)
		} else {
			failures = 0
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// backoff doubles interval once per consecutive failure, capped at ceiling.
func backoff(interval, ceiling time.Duration, failures int) time.Duration {
	d := interval
	for i := 0; i < failures && d < ceiling; i++ {
		d *= 2
	}
	if ceiling > 0 && d > ceiling {
		d = ceiling
	}
	return d
}

// Reconcile applies the state machine to one mapping.
func (e *Engine) Reconcile(ctx context.Context, m topology.Mapping) (Action, error) {
	if !m.TriggerKeyed() {
		e.logger.Debug("service-keyed mapping not reconciled",
			"service_id", m.ServiceID,
			"component", m.ComponentName,
		)
		return ActionUnsupported, nil
	}

	trigger, err := e.monitor.Trigger(ctx, m.TriggerID)
	if err != nil {
		return "", fmt.Errorf("failed to read trigger; %w", err)
	}

	if !trigger.Active {
		return e.clear(ctx, m)
	}
	return e.raise(ctx, m, trigger)
}

// clear returns a component to operational once its trigger is inactive.
func (e *Engine) clear(ctx context.Context, m topology.Mapping) (Action, error) {
	comp, err := e.page.Component(ctx, m.ComponentID)
	if err != nil {
		return "", fmt.Errorf("failed to read component; %w", err)
	}
	if comp.Status == cachet.ComponentOperational {
		return ActionUnchanged, nil
	}

	last, err := e.page.LastIncident(ctx, m.ComponentID)
	if err != nil {
		return "", fmt.Errorf("failed to read last incident; %w", err)
	}

	switch StateOf(last) {
	case IncidentOpen:
		_, err := e.page.UpdateIncident(ctx, last.ID, cachet.IncidentUpdate{
			Status:          cachet.IncidentFixed,
			Message:         e.composer.Resolved(last.Message),
			ComponentID:     m.ComponentID,
			ComponentStatus: cachet.ComponentOperational,
		})
		if err != nil {
			return "", fmt.Errorf("failed to resolve incident %d; %w", last.ID, err)
		}
		e.logger.Info("incident resolved",
			"incident_id", last.ID,
			"component", m.ComponentName,
			"component_id", m.ComponentID,
		)
		return ActionResolved, nil

	case IncidentAbsent, IncidentResolved:
		if _, err := e.page.UpdateComponentStatus(ctx, m.ComponentID, cachet.ComponentOperational); err != nil {
			return "", fmt.Errorf("failed to reset component status; %w", err)
		}
		e.logger.Info("component reset to operational",
			"component", m.ComponentName,
			"component_id", m.ComponentID,
			"previous_status", comp.Status.String(),
		)
		return ActionComponentReset, nil
	}

	return "", fmt.Errorf("unhandled incident state %v", StateOf(last))
}

// raise opens or refreshes the incident of an active trigger.
func (e *Engine) raise(ctx context.Context, m topology.Mapping, trigger zabbix.Trigger) (Action, error) {
	event, err := e.monitor.LastEvent(ctx, trigger.ID)
	if err != nil {
		return "", fmt.Errorf("failed to read last event; %w", err)
	}

	last, err := e.page.LastIncident(ctx, m.ComponentID)
	if err != nil {
		return "", fmt.Errorf("failed to read last incident; %w", err)
	}
	state := StateOf(last)

	incStatus, compStatus := Severity(trigger.Priority, event.Acknowledged)

	// A resolved incident's text is never carried into a new one.
	var msg string
	if event.Acknowledged {
		base := ""
		if state == IncidentOpen {
			base = last.Message
		}
		msg = e.composer.FoldAcknowledgements(base, event.Acknowledgements)
	}

	switch state {
	case IncidentAbsent, IncidentResolved:
		if msg == "" {
			msg = e.composer.Investigating(m.GroupName, m.ComponentName, trigger.Description)
		}
		inc, err := e.page.CreateIncident(ctx, cachet.NewIncident{
			Name:            IncidentName(m.GroupName, trigger.Description),
			Message:         msg,
			Status:          incStatus,
			Visible:         1,
			ComponentID:     m.ComponentID,
			ComponentStatus: compStatus,
			Notify:          true,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create incident; %w", err)
		}
		e.logger.Info("incident opened",
			"incident_id", inc.ID,
			"component", m.ComponentName,
			"component_id", m.ComponentID,
			"status", incStatus.String(),
			"component_status", compStatus.String(),
		)
		return ActionCreated, nil

	case IncidentOpen:
		// Unacknowledged problems keep the text written when they opened.
		if msg == "" {
			msg = last.Message
		}
		if strings.TrimSpace(msg) == strings.TrimSpace(last.Message) && last.Status == incStatus {
			comp, err := e.page.Component(ctx, m.ComponentID)
			if err != nil {
				return "", fmt.Errorf("failed to read component; %w", err)
			}
			if comp.Status == compStatus {
				return ActionUnchanged, nil
			}
		}
		_, err := e.page.UpdateIncident(ctx, last.ID, cachet.IncidentUpdate{
			Status:          incStatus,
			Message:         msg,
			ComponentID:     m.ComponentID,
			ComponentStatus: compStatus,
		})
		if err != nil {
			return "", fmt.Errorf("failed to update incident %d; %w", last.ID, err)
		}
		e.logger.Info("incident updated",
			"incident_id", last.ID,
			"component", m.ComponentName,
			"component_id", m.ComponentID,
			"status", incStatus.String(),
		)
		return ActionUpdated, nil
	}

	return "", fmt.Errorf("unhandled incident state %v", state)
}
