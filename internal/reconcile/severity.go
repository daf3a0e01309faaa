// Package reconcile mirrors trigger state onto status page incidents.
package reconcile

import "github.com/leefowlercu/statusmirror/internal/cachet"

// Severity maps a trigger priority and acknowledgement state to the incident
// and component status shown on the status page.
//
// Zabbix priorities run from 0 (not classified) to 5 (disaster). Anything at
// or above high is a major outage, average is a partial outage and the rest
// are performance issues.
func Severity(priority int, acknowledged bool) (cachet.IncidentStatus, cachet.ComponentStatus) {
	var comp cachet.ComponentStatus
	switch {
	case priority >= 4:
		comp = cachet.ComponentMajorOutage
	case priority == 3:
		comp = cachet.ComponentPartialOutage
	default:
		comp = cachet.ComponentPerformanceIssues
	}

	if acknowledged {
		return cachet.IncidentIdentified, comp
	}
	return cachet.IncidentInvestigating, comp
}
