// Package zabbix is a minimal Zabbix JSON-RPC client covering triggers,
// events, IT services and SLA reports.
package zabbix

import (
	"fmt"
	"time"
)

// NoTrigger is the trigger id Zabbix reports for services without a trigger.
const NoTrigger = "0"

// Trigger is a Zabbix trigger.
type Trigger struct {
	ID          string
	Description string
	URL         string
	Comments    string

	// Priority is the trigger severity, 0 (not classified) to 5 (disaster).
	Priority int

	// Active is true while the trigger is in the PROBLEM state.
	Active bool
}

// Acknowledgement is one acknowledgement of a problem event.
type Acknowledgement struct {
	Time    time.Time
	Author  string
	Message string
}

// Event is the latest problem event of a trigger.
type Event struct {
	ID               string
	Acknowledged     bool
	Acknowledgements []Acknowledgement
}

// Service is a node of the Zabbix IT service tree.
type Service struct {
	ID        string
	Name      string
	TriggerID string
	ShowSLA   bool
	Children  []Service
}

// HasTrigger reports whether the service is bound to a trigger.
func (s Service) HasTrigger() bool {
	return s.TriggerID != "" && s.TriggerID != NoTrigger
}

// SLA is the availability of a service over one interval.
type SLA struct {
	ServiceID string
	From      time.Time
	To        time.Time

	// Value is the SLA percentage, 0 to 100.
	Value float64
}

// APIError describes a failed JSON-RPC call.
type APIError struct {
	Method     string
	StatusCode int
	Code       int
	Message    string
	Data       string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != 0:
		return fmt.Sprintf("zabbix %s: error %d: %s %s", e.Method, e.Code, e.Message, e.Data)
	case e.StatusCode != 0:
		return fmt.Sprintf("zabbix %s: status %d: %s", e.Method, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("zabbix %s: %s", e.Method, e.Message)
	}
}
