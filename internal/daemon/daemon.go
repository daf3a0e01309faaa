// Package daemon runs the mirror: it supervises the topology orchestrator,
// the reconciliation loop and the uptime mirror, and serves health, metrics
// and inspection endpoints.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DaemonState represents the lifecycle state of the daemon.
type DaemonState string

const (
	// DaemonStateStarting indicates the daemon is initializing.
	DaemonStateStarting DaemonState = "starting"

	// DaemonStateRunning indicates all components are healthy and serving.
	DaemonStateRunning DaemonState = "running"

	// DaemonStateDegraded indicates some non-critical components have failed.
	DaemonStateDegraded DaemonState = "degraded"

	// DaemonStateStopping indicates graceful shutdown is in progress.
	DaemonStateStopping DaemonState = "stopping"

	// DaemonStateStopped indicates the daemon has terminated.
	DaemonStateStopped DaemonState = "stopped"
)

// IsTerminal returns true if this state is a terminal state (no further transitions).
func (s DaemonState) IsTerminal() bool {
	return s == DaemonStateStopped
}

// CanTransitionTo returns true if transitioning to the target state is valid.
func (s DaemonState) CanTransitionTo(target DaemonState) bool {
	switch s {
	case DaemonStateStarting:
		return target == DaemonStateRunning || target == DaemonStateStopped
	case DaemonStateRunning:
		return target == DaemonStateDegraded || target == DaemonStateStopping
	case DaemonStateDegraded:
		return target == DaemonStateRunning || target == DaemonStateStopping
	case DaemonStateStopping:
		return target == DaemonStateStopped
	case DaemonStateStopped:
		return false
	default:
		return false
	}
}

// DaemonConfig holds the configuration values for the daemon.
type DaemonConfig struct {
	// HTTPPort is the port for the HTTP server. Zero disables it.
	HTTPPort int

	// HTTPBind is the address to bind the HTTP server.
	HTTPBind string

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultDaemonConfig returns the default daemon configuration.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		HTTPPort:        7700,
		HTTPBind:        "127.0.0.1",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Daemon owns the HTTP server, the health manager and the service manager
// notifications.
// It is safe for concurrent use.
type Daemon struct {
	mu       sync.RWMutex
	config   DaemonConfig
	state    DaemonState
	server   *Server
	health   *HealthManager
	notifier Notifier
	logger   *slog.Logger
}

// DaemonOption configures a Daemon.
type DaemonOption func(*Daemon)

// WithNotifier sets the service manager notifier.
func WithNotifier(n Notifier) DaemonOption {
	return func(d *Daemon) {
		d.notifier = n
	}
}

// WithDaemonLogger sets the daemon logger.
func WithDaemonLogger(l *slog.Logger) DaemonOption {
	return func(d *Daemon) {
		d.logger = l
	}
}

// NewDaemon creates a new Daemon instance with the given configuration.
func NewDaemon(cfg DaemonConfig, opts ...DaemonOption) *Daemon {
	health := NewHealthManager()
	d := &Daemon{
		config: cfg,
		state:  DaemonStateStopped,
		server: NewServer(health, ServerConfig{
			Port: cfg.HTTPPort,
			Bind: cfg.HTTPBind,
		}),
		health:   health,
		notifier: SystemdNotifier{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current daemon state.
func (d *Daemon) State() DaemonState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Daemon) setState(state DaemonState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = state
}

// Health returns the current aggregate health status.
func (d *Daemon) Health() HealthStatus {
	return d.health.Status()
}

// HealthManager returns the health manager components report to.
func (d *Daemon) HealthManager() *HealthManager {
	return d.health
}

// Server returns the HTTP server so callers can attach handlers.
func (d *Daemon) Server() *Server {
	return d.server
}

// UpdateComponentHealth updates health status for multiple components.
func (d *Daemon) UpdateComponentHealth(statuses map[string]ComponentHealth) {
	d.health.UpdateComponentHealth(statuses)
}

// Start serves HTTP (when a port is configured), tells the service manager
// the daemon is ready and blocks until ctx is cancelled or the server fails.
func (d *Daemon) Start(ctx context.Context) error {
	d.setState(DaemonStateStarting)

	serverErr := make(chan error, 1)
	if d.config.HTTPPort > 0 {
		go func() {
			if err := d.server.Start(ctx); err != nil {
				serverErr <- err
			}
			close(serverErr)
		}()
	} else {
		d.logger.Info("http server disabled")
	}

	d.setState(DaemonStateRunning)
	d.notifier.Ready()
	d.logger.Info("daemon started",
		"state", d.State(),
		"http_bind", d.config.HTTPBind,
		"http_port", d.config.HTTPPort,
	)

	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		d.watchdog(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		d.logger.Info("shutdown signal received")
	case err = <-serverErr:
		if err != nil {
			d.logger.Error("http server error", "error", err)
		}
	}

	stopErr := d.Stop()
	<-watchdogDone
	if err != nil {
		return err
	}
	return stopErr
}

// watchdog pings the service manager watchdog while the daemon is healthy.
func (d *Daemon) watchdog(ctx context.Context) {
	interval := d.notifier.WatchdogInterval()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.State() == DaemonStateStopping {
				return
			}
			if d.health.Status().Status == "healthy" {
				d.notifier.Watchdog()
			}
		}
	}
}

// Stop performs graceful shutdown of the daemon.
func (d *Daemon) Stop() error {
	d.setState(DaemonStateStopping)
	d.notifier.Stopping()
	d.logger.Info("stopping daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.config.ShutdownTimeout)
	defer cancel()

	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Error("failed to shutdown http server", "error", err)
	}

	d.setState(DaemonStateStopped)
	d.logger.Info("daemon stopped")

	return nil
}
