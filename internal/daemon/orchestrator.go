package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/metrics"
	"github.com/leefowlercu/statusmirror/internal/topology"
)

// Component names reported to the health manager.
const (
	ComponentTopology  = "topology"
	ComponentIncidents = "incidents"
	ComponentUptime    = "uptime"
)

// Syncer produces a fresh topology snapshot.
type Syncer interface {
	Sync(ctx context.Context) (topology.Snapshot, error)
}

// OrchestratorConfig holds the orchestrator intervals.
type OrchestratorConfig struct {
	// SyncInterval is the time between topology syncs.
	SyncInterval time.Duration

	// PollInterval is the reconciliation tick interval.
	PollInterval time.Duration
}

// Orchestrator syncs the topology on a fixed interval and restarts the
// reconciliation loop whenever the resulting snapshot changes. The previous
// loop has always fully exited before the next one starts.
type Orchestrator struct {
	syncer  Syncer
	runner  LoopRunner
	cfg     OrchestratorConfig
	health  HealthUpdater
	logger  *slog.Logger
	trigger chan struct{}

	mu       sync.Mutex
	current  topology.Snapshot
	loop     *reconcileLoop
	lastSync time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the orchestrator logger.
func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithHealthUpdater sets where topology health is reported.
func WithHealthUpdater(h HealthUpdater) OrchestratorOption {
	return func(o *Orchestrator) {
		o.health = h
	}
}

// NewOrchestrator creates an orchestrator. Nothing runs until Run is called.
func NewOrchestrator(syncer Syncer, runner LoopRunner, cfg OrchestratorConfig, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		syncer:  syncer,
		runner:  runner,
		cfg:     cfg,
		logger:  slog.Default(),
		trigger: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", ComponentTopology)
	return o
}

// Run syncs immediately, then every SyncInterval or on TriggerSync, until
// ctx is cancelled. It returns a configuration error as soon as one occurs;
// other sync failures are logged and retried on the next interval. The
// reconciliation loop is stopped before Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.stopLoop()

	ticker := time.NewTicker(o.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		if err := o.syncOnce(ctx); err != nil {
			if config.IsMisconfigured(err) {
				return err
			}
			if ctx.Err() == nil {
				o.logger.Error("topology sync failed; keeping current mapping", "error", err)
				o.reportHealth(ComponentStatusDegraded, err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-o.trigger:
			o.logger.Info("topology sync requested")
		}
	}
}

// TriggerSync requests an immediate topology sync. It returns false if a
// request is already pending.
func (o *Orchestrator) TriggerSync() bool {
	select {
	case o.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Snapshot returns a copy of the mapping the reconciliation loop runs on,
// and the id of that loop.
func (o *Orchestrator) Snapshot() (topology.Snapshot, string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.loop == nil {
		return nil, ""
	}
	return o.current.Clone(), o.loop.id
}

func (o *Orchestrator) syncOnce(ctx context.Context) error {
	snap, err := o.syncer.Sync(ctx)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.lastSync = time.Now()
	changed := o.loop == nil || !snap.Equal(o.current)
	o.mu.Unlock()

	o.reportHealth(ComponentStatusRunning, nil)

	if !changed {
		o.logger.Debug("topology unchanged", "mappings", len(snap))
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	o.restart(ctx, snap.Clone())
	return nil
}

// restart replaces the running loop with one bound to snap. The lock is not
// held while the old loop drains, so Snapshot keeps answering with the
// mapping of the loop being stopped. Only Run calls restart and stopLoop.
func (o *Orchestrator) restart(ctx context.Context, snap topology.Snapshot) {
	o.mu.Lock()
	old := o.loop
	previous := len(o.current)
	o.mu.Unlock()

	if old != nil {
		o.logger.Info("topology changed; restarting reconciliation loop",
			"loop_id", old.id,
			"previous_mappings", previous,
			"mappings", len(snap),
		)
		old.stop()
	}

	next := startLoop(ctx, o.runner, snap, o.cfg.PollInterval, o.logger)

	o.mu.Lock()
	o.current = snap
	o.loop = next
	o.mu.Unlock()

	metrics.RecordReconcileRestart(snap.TriggerKeyed())
}

func (o *Orchestrator) stopLoop() {
	o.mu.Lock()
	old := o.loop
	o.mu.Unlock()

	if old == nil {
		return
	}
	old.stop()

	o.mu.Lock()
	o.loop = nil
	o.mu.Unlock()
}

func (o *Orchestrator) reportHealth(status ComponentStatus, err error) {
	if o.health == nil {
		return
	}

	o.mu.Lock()
	h := ComponentHealth{
		Status:      status,
		LastChecked: time.Now(),
		Details:     map[string]any{"mappings": len(o.current)},
	}
	if status == ComponentStatusRunning {
		h.LastSuccess = o.lastSync
	}
	o.mu.Unlock()

	if err != nil {
		h.Error = err.Error()
	}
	o.health.UpdateComponentHealth(map[string]ComponentHealth{ComponentTopology: h})
}
