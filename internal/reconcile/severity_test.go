package reconcile

import (
	"testing"

	"github.com/leefowlercu/statusmirror/internal/cachet"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		name         string
		priority     int
		acknowledged bool
		wantIncident cachet.IncidentStatus
		wantComp     cachet.ComponentStatus
	}{
		{"disaster unacknowledged", 5, false, cachet.IncidentInvestigating, cachet.ComponentMajorOutage},
		{"high unacknowledged", 4, false, cachet.IncidentInvestigating, cachet.ComponentMajorOutage},
		{"average unacknowledged", 3, false, cachet.IncidentInvestigating, cachet.ComponentPartialOutage},
		{"warning unacknowledged", 2, false, cachet.IncidentInvestigating, cachet.ComponentPerformanceIssues},
		{"information acknowledged", 1, true, cachet.IncidentIdentified, cachet.ComponentPerformanceIssues},
		{"not classified", 0, false, cachet.IncidentInvestigating, cachet.ComponentPerformanceIssues},
		{"disaster acknowledged", 5, true, cachet.IncidentIdentified, cachet.ComponentMajorOutage},
		{"negative priority", -1, false, cachet.IncidentInvestigating, cachet.ComponentPerformanceIssues},
		{"priority above range", 9, false, cachet.IncidentInvestigating, cachet.ComponentMajorOutage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inc, comp := Severity(tt.priority, tt.acknowledged)
			if inc != tt.wantIncident {
				t.Errorf("incident status = %v, want %v", inc, tt.wantIncident)
			}
			if comp != tt.wantComp {
				t.Errorf("component status = %v, want %v", comp, tt.wantComp)
			}
		})
	}
}

func TestStateOf(t *testing.T) {
	tests := []struct {
		inc  cachet.Incident
		want IncidentState
	}{
		{cachet.NoIncident, IncidentAbsent},
		{cachet.Incident{ID: 3, Status: cachet.IncidentScheduled}, IncidentOpen},
		{cachet.Incident{ID: 3, Status: cachet.IncidentInvestigating}, IncidentOpen},
		{cachet.Incident{ID: 3, Status: cachet.IncidentIdentified}, IncidentOpen},
		{cachet.Incident{ID: 3, Status: cachet.IncidentWatching}, IncidentOpen},
		{cachet.Incident{ID: 3, Status: cachet.IncidentFixed}, IncidentResolved},
		{cachet.Incident{ID: 3, Status: cachet.IncidentStatus(42)}, IncidentOpen},
		{cachet.Incident{ID: 0, Status: cachet.IncidentInvestigating}, IncidentAbsent},
	}

	for _, tt := range tests {
		if got := StateOf(tt.inc); got != tt.want {
			t.Errorf("StateOf(id=%d, status=%v) = %v, want %v", tt.inc.ID, tt.inc.Status, got, tt.want)
		}
	}
}
