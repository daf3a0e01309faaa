package reconcile

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/leefowlercu/statusmirror/internal/cachet"
	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

var errInjected = errors.New("injected failure")

type fakeMonitor struct {
	mu       sync.Mutex
	triggers map[string]zabbix.Trigger
	events   map[string]zabbix.Event
	fail     bool
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{
		triggers: make(map[string]zabbix.Trigger),
		events:   make(map[string]zabbix.Event),
	}
}

func (f *fakeMonitor) set(t zabbix.Trigger, ev zabbix.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers[t.ID] = t
	f.events[t.ID] = ev
}

func (f *fakeMonitor) Trigger(_ context.Context, id string) (zabbix.Trigger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return zabbix.Trigger{}, errInjected
	}
	t, ok := f.triggers[id]
	if !ok {
		return zabbix.Trigger{}, zabbix.ErrNotFound
	}
	return t, nil
}

func (f *fakeMonitor) LastEvent(_ context.Context, triggerID string) (zabbix.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[triggerID], nil
}

type fakePage struct {
	mu         sync.Mutex
	components map[int]cachet.Component
	incidents  []cachet.Incident
	nextID     int

	creates          int
	updates          int
	componentUpdates int
	failCreate       bool
}

func newFakePage(componentIDs ...int) *fakePage {
	p := &fakePage{components: make(map[int]cachet.Component)}
	for _, id := range componentIDs {
		p.components[id] = cachet.Component{ID: id, Status: cachet.ComponentOperational}
	}
	return p
}

func (f *fakePage) Component(_ context.Context, id int) (cachet.Component, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.components[id]
	if !ok {
		return cachet.Component{}, cachet.ErrNotFound
	}
	return c, nil
}

func (f *fakePage) UpdateComponentStatus(_ context.Context, id int, status cachet.ComponentStatus) (cachet.Component, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.componentUpdates++
	c := f.components[id]
	c.Status = status
	f.components[id] = c
	return c, nil
}

func (f *fakePage) LastIncident(_ context.Context, componentID int) (cachet.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	last := cachet.NoIncident
	for _, inc := range f.incidents {
		if inc.ComponentID == componentID && inc.ID > last.ID {
			last = inc
		}
	}
	return last, nil
}

func (f *fakePage) CreateIncident(_ context.Context, nc cachet.NewIncident) (cachet.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return cachet.Incident{}, errInjected
	}
	f.creates++
	f.nextID++
	inc := cachet.Incident{
		ID:          f.nextID,
		ComponentID: nc.ComponentID,
		Name:        nc.Name,
		Message:     nc.Message,
		Status:      nc.Status,
		Visible:     nc.Visible,
	}
	f.incidents = append(f.incidents, inc)
	c := f.components[nc.ComponentID]
	c.Status = nc.ComponentStatus
	f.components[nc.ComponentID] = c
	return inc, nil
}

func (f *fakePage) UpdateIncident(_ context.Context, id int, upd cachet.IncidentUpdate) (cachet.Incident, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	for i := range f.incidents {
		if f.incidents[i].ID != id {
			continue
		}
		f.incidents[i].Status = upd.Status
		f.incidents[i].Message = upd.Message
		componentID := f.incidents[i].ComponentID
		c := f.components[componentID]
		c.Status = upd.ComponentStatus
		f.components[componentID] = c
		return f.incidents[i], nil
	}
	return cachet.Incident{}, cachet.ErrNotFound
}

// open returns the non-fixed incidents of a component, by id.
func (f *fakePage) open(componentID int) []cachet.Incident {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []cachet.Incident
	for _, inc := range f.incidents {
		if inc.ComponentID == componentID && inc.Status != cachet.IncidentFixed {
			out = append(out, inc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakePage) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates + f.updates + f.componentUpdates
}
