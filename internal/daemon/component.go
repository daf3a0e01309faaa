package daemon

import "github.com/leefowlercu/statusmirror/internal/config"

// ComponentStatus represents the health state of a component.
type ComponentStatus string

const (
	// ComponentStatusStarting indicates the component has not completed its first cycle.
	ComponentStatusStarting ComponentStatus = "starting"

	// ComponentStatusRunning indicates the component is operating normally.
	ComponentStatusRunning ComponentStatus = "running"

	// ComponentStatusFailed indicates the component has encountered an error.
	ComponentStatusFailed ComponentStatus = "failed"

	// ComponentStatusDegraded indicates the component is running but its last cycle failed.
	ComponentStatusDegraded ComponentStatus = "degraded"

	// ComponentStatusStopped indicates the component has been intentionally stopped.
	ComponentStatusStopped ComponentStatus = "stopped"
)

// IsHealthy returns true if the component status indicates healthy operation.
func (s ComponentStatus) IsHealthy() bool {
	return s == ComponentStatusRunning || s == ComponentStatusStarting
}

// Criticality describes whether a component failure stops the daemon.
type Criticality string

const (
	CriticalityFatal      Criticality = "fatal"
	CriticalityDegradable Criticality = "degradable"
)

// RestartPolicy determines whether a component is restarted after it returns.
type RestartPolicy string

const (
	RestartNever     RestartPolicy = "never"
	RestartOnFailure RestartPolicy = "on_failure"
)

// ComponentDefinition declares how a supervised component behaves on failure.
type ComponentDefinition struct {
	Name          string
	Criticality   Criticality
	RestartPolicy RestartPolicy
}

// Stops reports whether a failure with err stops the daemon. Configuration
// errors always do; other errors only when the component is fatal and is
// not restarted.
func (d ComponentDefinition) Stops(err error) bool {
	if err == nil {
		return false
	}
	if config.IsMisconfigured(err) {
		return true
	}
	return d.Criticality == CriticalityFatal && d.RestartPolicy == RestartNever
}

// Supervised workers of the mirror. The reconciliation loop is not listed:
// the orchestrator owns it and reports its health as ComponentIncidents.
var (
	TopologyWorker = ComponentDefinition{
		Name:          ComponentTopology,
		Criticality:   CriticalityFatal,
		RestartPolicy: RestartOnFailure,
	}
	UptimeWorker = ComponentDefinition{
		Name:          ComponentUptime,
		Criticality:   CriticalityDegradable,
		RestartPolicy: RestartOnFailure,
	}
)
