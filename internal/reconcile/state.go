package reconcile

import "github.com/leefowlercu/statusmirror/internal/cachet"

// IncidentState is the lifecycle state of a component's last incident.
type IncidentState int

const (
	// IncidentAbsent means the component has never had an incident.
	IncidentAbsent IncidentState = iota

	// IncidentOpen means the last incident is not yet fixed.
	IncidentOpen

	// IncidentResolved means the last incident is fixed.
	IncidentResolved
)

func (s IncidentState) String() string {
	switch s {
	case IncidentAbsent:
		return "absent"
	case IncidentOpen:
		return "open"
	case IncidentResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// StateOf classifies the last incident of a component.
func StateOf(inc cachet.Incident) IncidentState {
	if inc.ID == 0 {
		return IncidentAbsent
	}
	switch inc.Status {
	case cachet.IncidentAbsent:
		return IncidentAbsent
	case cachet.IncidentFixed:
		return IncidentResolved
	case cachet.IncidentScheduled, cachet.IncidentInvestigating, cachet.IncidentIdentified, cachet.IncidentWatching:
		return IncidentOpen
	default:
		// Unknown statuses count as open.
		return IncidentOpen
	}
}
