// Package topology derives the mapping from monitored conditions to status
// page components by walking the Zabbix IT service tree.
package topology

import "slices"

// Mapping binds one monitored condition to a status page component.
// Exactly one of TriggerID and ServiceID is set.
type Mapping struct {
	TriggerID     string `json:"trigger_id,omitempty" yaml:"trigger_id,omitempty"`
	ServiceID     string `json:"service_id,omitempty" yaml:"service_id,omitempty"`
	GroupID       int    `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	GroupName     string `json:"group_name,omitempty" yaml:"group_name,omitempty"`
	ComponentID   int    `json:"component_id" yaml:"component_id"`
	ComponentName string `json:"component_name" yaml:"component_name"`
}

// TriggerKeyed reports whether the condition is a trigger.
// Service-keyed mappings are produced but not reconciled.
func (m Mapping) TriggerKeyed() bool {
	return m.TriggerID != ""
}

// Grouped reports whether the component belongs to a component group.
func (m Mapping) Grouped() bool {
	return m.GroupID != 0
}

// Snapshot is the ordered result of one topology sync.
type Snapshot []Mapping

// Equal compares two snapshots by value, including order.
func (s Snapshot) Equal(other Snapshot) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy that shares no backing array with s.
func (s Snapshot) Clone() Snapshot {
	return slices.Clone(s)
}

// TriggerKeyed returns the number of mappings the reconciliation engine acts on.
func (s Snapshot) TriggerKeyed() int {
	n := 0
	for _, m := range s {
		if m.TriggerKeyed() {
			n++
		}
	}
	return n
}
