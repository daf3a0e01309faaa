// Package cachet is a client for the Cachet status page REST API (v1).
package cachet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned by lookups that matched no entity.
var ErrNotFound = errors.New("not found")

// ComponentStatus is the status of a Cachet component.
type ComponentStatus int

const (
	ComponentOperational       ComponentStatus = 1
	ComponentPerformanceIssues ComponentStatus = 2
	ComponentPartialOutage     ComponentStatus = 3
	ComponentMajorOutage       ComponentStatus = 4
)

// String returns the Cachet display name of the status.
func (s ComponentStatus) String() string {
	switch s {
	case ComponentOperational:
		return "operational"
	case ComponentPerformanceIssues:
		return "performance_issues"
	case ComponentPartialOutage:
		return "partial_outage"
	case ComponentMajorOutage:
		return "major_outage"
	default:
		return "unknown"
	}
}

// IncidentStatus is the status of a Cachet incident.
type IncidentStatus int

const (
	// IncidentAbsent is never stored by Cachet; it marks the NoIncident sentinel.
	IncidentAbsent IncidentStatus = -1

	IncidentScheduled     IncidentStatus = 0
	IncidentInvestigating IncidentStatus = 1
	IncidentIdentified    IncidentStatus = 2
	IncidentWatching      IncidentStatus = 3
	IncidentFixed         IncidentStatus = 4
)

// String returns the Cachet display name of the status.
func (s IncidentStatus) String() string {
	switch s {
	case IncidentAbsent:
		return "absent"
	case IncidentScheduled:
		return "scheduled"
	case IncidentInvestigating:
		return "investigating"
	case IncidentIdentified:
		return "identified"
	case IncidentWatching:
		return "watching"
	case IncidentFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Component is a Cachet component.
type Component struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Link        string          `json:"link"`
	Status      ComponentStatus `json:"status"`
	GroupID     int             `json:"group_id"`
	Enabled     bool            `json:"enabled"`
}

// NewComponent holds the fields used to create a component.
type NewComponent struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Link        string          `json:"link"`
	Status      ComponentStatus `json:"status"`
	GroupID     int             `json:"group_id"`
}

// Group is a Cachet component group.
type Group struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Collapsed int    `json:"collapsed"`
}

// Incident is a Cachet incident.
type Incident struct {
	ID          int            `json:"id"`
	ComponentID int            `json:"component_id"`
	Name        string         `json:"name"`
	Message     string         `json:"message"`
	Status      IncidentStatus `json:"status"`
	Visible     int            `json:"visible"`
}

// NoIncident is returned by LastIncident when a component has no incidents.
var NoIncident = Incident{ID: 0, Name: "Does not exist", Status: IncidentAbsent}

// NewIncident holds the fields used to create an incident.
type NewIncident struct {
	Name            string          `json:"name"`
	Message         string          `json:"message"`
	Status          IncidentStatus  `json:"status"`
	Visible         int             `json:"visible"`
	ComponentID     int             `json:"component_id"`
	ComponentStatus ComponentStatus `json:"component_status"`
	Notify          bool            `json:"notify"`
}

// IncidentUpdate holds the mutable fields of an incident.
type IncidentUpdate struct {
	Status          IncidentStatus  `json:"status"`
	Message         string          `json:"message"`
	ComponentID     int             `json:"component_id,omitempty"`
	ComponentStatus ComponentStatus `json:"component_status"`
}

// Metric is a Cachet metric.
type Metric struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Suffix       string  `json:"suffix"`
	DefaultValue float64 `json:"default_value"`
}

// NewMetric holds the fields used to create a metric.
type NewMetric struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Suffix       string  `json:"suffix"`
	DefaultValue float64 `json:"default_value"`
}

// APIError describes a failed Cachet request.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("cachet %s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("cachet %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// UnmarshalJSON accepts the status as a number or a quoted number.
func (s *ComponentStatus) UnmarshalJSON(data []byte) error {
	n, err := parseStatus(data)
	if err != nil {
		return fmt.Errorf("invalid component status %s; %w", data, err)
	}
	*s = ComponentStatus(n)
	return nil
}

// UnmarshalJSON accepts the status as a number or a quoted number.
func (s *IncidentStatus) UnmarshalJSON(data []byte) error {
	n, err := parseStatus(data)
	if err != nil {
		return fmt.Errorf("invalid incident status %s; %w", data, err)
	}
	*s = IncidentStatus(n)
	return nil
}

// Cachet releases disagree on whether statuses are numbers or strings.
func parseStatus(data []byte) (int, error) {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
