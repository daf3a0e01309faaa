package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leefowlercu/statusmirror/internal/cachet"
	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/lease"
	"github.com/leefowlercu/statusmirror/internal/metrics"
	"github.com/leefowlercu/statusmirror/internal/reconcile"
	"github.com/leefowlercu/statusmirror/internal/topology"
	"github.com/leefowlercu/statusmirror/internal/uptime"
	"github.com/leefowlercu/statusmirror/internal/version"
	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

// NewMonitor creates the Zabbix client described by cfg.
func NewMonitor(cfg *config.Config, logger *slog.Logger) *zabbix.Client {
	return zabbix.New(zabbix.Config{
		Server:             cfg.Zabbix.Server,
		User:               cfg.Zabbix.User,
		Password:           cfg.Zabbix.ResolvePassword(),
		BasicAuth:          cfg.Zabbix.BasicAuth,
		InsecureSkipVerify: !cfg.Zabbix.HTTPSVerify,
		Timeout:            time.Duration(cfg.Zabbix.Timeout) * time.Second,
		RateLimit:          cfg.Zabbix.RateLimit,
	}, zabbix.WithLogger(logger))
}

// NewStatusPage creates the Cachet client described by cfg.
func NewStatusPage(cfg *config.Config, logger *slog.Logger) *cachet.Client {
	return cachet.New(cachet.Config{
		Server:             cfg.Cachet.Server,
		Token:              cfg.Cachet.ResolveToken(),
		InsecureSkipVerify: !cfg.Cachet.HTTPSVerify,
		Timeout:            time.Duration(cfg.Cachet.Timeout) * time.Second,
		RateLimit:          cfg.Cachet.RateLimit,
	}, cachet.WithLogger(logger))
}

// Run builds every component from cfg and runs the mirror until ctx is
// cancelled or a component fails fatally. A nil return means a clean
// shutdown.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	monitor := NewMonitor(cfg, logger)
	page := NewStatusPage(cfg, logger)

	var held *lease.Lease
	if cfg.Lease.Enabled {
		rdb, err := lease.NewRedisClient(ctx, lease.Config{
			Address:  cfg.Lease.Address,
			Password: cfg.Lease.ResolvePassword(),
			DB:       cfg.Lease.DB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		held = lease.New(rdb, cfg.Lease.Key, time.Duration(cfg.Lease.TTL)*time.Second, lease.WithLogger(logger))
		if err := held.Acquire(ctx); err != nil {
			return fmt.Errorf("failed to acquire writer lease; %w", err)
		}
	}

	d := NewDaemon(DaemonConfig{
		HTTPPort:        cfg.Daemon.HTTPPort,
		HTTPBind:        cfg.Daemon.HTTPBind,
		ShutdownTimeout: time.Duration(cfg.Daemon.ShutdownTimeout) * time.Second,
	}, WithDaemonLogger(logger))
	health := d.HealthManager()

	engine := reconcile.NewEngine(monitor, page,
		reconcile.WithLogger(logger),
		reconcile.WithComposer(reconcile.NewComposer(cfg.Sync.Location())),
		reconcile.WithMaxBackoff(cfg.Sync.MaxBackoffDuration()),
		reconcile.WithTickHook(tickHealth(health, ComponentIncidents)),
	)
	health.UpdateComponent(ComponentIncidents, ComponentHealth{Status: ComponentStatusStarting, LastChecked: time.Now()})

	syncer := topology.NewSynchronizer(monitor, page, cfg.Sync.RootService, topology.WithLogger(logger))
	orch := NewOrchestrator(syncer, engine, OrchestratorConfig{
		SyncInterval: cfg.Sync.ComponentEvery(),
		PollInterval: cfg.Sync.IncidentEvery(),
	}, WithOrchestratorLogger(logger), WithHealthUpdater(health))

	var mirror atomic.Pointer[uptime.Mirror]
	runUptime := func(ctx context.Context) error {
		m := mirror.Load()
		if m == nil {
			bindings, err := uptime.Bind(ctx, monitor, page, cfg.Sync.MetricServices, logger)
			if err != nil {
				return err
			}
			m = uptime.NewMirror(monitor, page, bindings, cfg.Sync.MetricEvery(),
				uptime.WithLogger(logger),
				uptime.WithTickHook(tickHealth(health, ComponentUptime)),
			)
			mirror.Store(m)
		}
		return m.Run(ctx)
	}

	collector := metrics.NewCollector(health, time.Duration(cfg.Daemon.MetricsInterval)*time.Second)
	if err := collector.Start(ctx, version.Get().Version); err != nil {
		return fmt.Errorf("failed to start metrics collector; %w", err)
	}
	defer collector.Stop()

	server := d.Server()
	server.SetMetricsHandler(metrics.Handler())
	server.SetSyncFunc(orch.TriggerSync)
	server.SetMappingsFunc(func() MappingsResponse {
		snap, loopID := orch.Snapshot()
		resp := MappingsResponse{LoopID: loopID, Mappings: snap}
		if m := mirror.Load(); m != nil {
			resp.Metrics = m.Bindings()
		}
		return resp
	})

	supervisor := NewComponentSupervisor(health, WithSupervisorLogger(logger))

	// The lease outlives the workers so no write happens after release.
	holdCtx, releaseLease := context.WithCancel(context.WithoutCancel(ctx))
	defer releaseLease()
	var holdErr error
	holdDone := make(chan struct{})
	if held != nil {
		go func() {
			defer close(holdDone)
			holdErr = held.Hold(holdCtx)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return d.Start(gctx)
	})

	if len(cfg.Sync.MetricServices) > 0 {
		supervisor.Supervise(gctx, UptimeWorker, runUptime)
	} else {
		logger.Info("no metric services configured; uptime mirror disabled")
	}

	supervisor.Supervise(gctx, TopologyWorker, orch.Run)

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-supervisor.Fatal():
			return err
		case <-holdDone:
			if holdErr == nil {
				return nil
			}
			return fmt.Errorf("writer lease lost; %w", holdErr)
		}
	})

	err := g.Wait()

	supervisor.CancelAll()
	supervisor.Wait()

	if held != nil {
		releaseLease()
		<-holdDone
		if holdErr != nil && !errors.Is(holdErr, lease.ErrLost) {
			logger.Warn("failed to release writer lease", "error", holdErr)
		}
	}

	if err != nil {
		logger.Error("daemon stopped with error", "error", err)
	}
	return err
}

// tickHealth returns a tick hook reporting the outcome of each tick as the
// health of the named component.
func tickHealth(updater HealthUpdater, name string) func(error) {
	var lastSuccess atomic.Pointer[time.Time]
	return func(err error) {
		now := time.Now()
		h := ComponentHealth{Status: ComponentStatusRunning, LastChecked: now}
		if err != nil {
			h.Status = ComponentStatusDegraded
			h.Error = err.Error()
		} else {
			lastSuccess.Store(&now)
		}
		if t := lastSuccess.Load(); t != nil {
			h.LastSuccess = *t
		}
		updater.UpdateComponentHealth(map[string]ComponentHealth{name: h})
	}
}
