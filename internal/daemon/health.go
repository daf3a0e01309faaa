package daemon

import (
	"sync"
	"time"
)

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	// Status is the current health state.
	Status ComponentStatus `json:"status"`

	// Error contains the error message if Status is "failed" or "degraded".
	Error string `json:"error,omitempty"`

	// LastChecked is when the health was last evaluated.
	LastChecked time.Time `json:"last_checked"`

	// LastSuccess is when the component last completed a cycle successfully.
	LastSuccess time.Time `json:"last_success,omitempty"`

	// Details carries optional, non-sensitive diagnostic data.
	Details map[string]any `json:"details,omitempty"`
}

// IsHealthy returns true if the component health indicates healthy operation.
func (h ComponentHealth) IsHealthy() bool {
	return h.Status.IsHealthy()
}

// HealthUpdater receives component health updates.
type HealthUpdater interface {
	UpdateComponentHealth(statuses map[string]ComponentHealth)
}

// HealthStatus represents the aggregate health of the daemon.
// This is the response format for /readyz.
type HealthStatus struct {
	// Status is the overall daemon health: "healthy" or "degraded".
	Status string `json:"status"`

	// Ready is true once every component has left the starting state.
	Ready bool `json:"ready"`

	// Uptime is how long the daemon has been running.
	Uptime time.Duration `json:"uptime"`

	// Components contains per-component health status.
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// HealthManager aggregates health status from multiple components.
// It is safe for concurrent use.
type HealthManager struct {
	mu         sync.RWMutex
	components map[string]ComponentHealth
	startTime  time.Time
}

// NewHealthManager creates a new HealthManager instance.
func NewHealthManager() *HealthManager {
	return &HealthManager{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}
}

// UpdateComponent updates the health status for a named component.
func (m *HealthManager) UpdateComponent(name string, health ComponentHealth) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[name] = health
}

// UpdateComponentHealth updates health status for multiple components.
func (m *HealthManager) UpdateComponentHealth(statuses map[string]ComponentHealth) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, health := range statuses {
		m.components[name] = health
	}
}

// RemoveComponent removes a component from health tracking.
func (m *HealthManager) RemoveComponent(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.components, name)
}

// ComponentHealthy reports per-component health for the metrics collector.
func (m *HealthManager) ComponentHealthy() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.components))
	for name, health := range m.components {
		out[name] = health.IsHealthy()
	}
	return out
}

// Status returns the aggregate health status of all components.
func (m *HealthManager) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := HealthStatus{
		Status:     "healthy",
		Ready:      true,
		Uptime:     time.Since(m.startTime),
		Components: make(map[string]ComponentHealth, len(m.components)),
	}

	for name, health := range m.components {
		status.Components[name] = health
		if !health.IsHealthy() {
			status.Status = "degraded"
		}
		if health.Status == ComponentStatusStarting {
			status.Ready = false
		}
	}

	return status
}
