package topology

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/statusmirror/internal/cachet"
	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

type fakeMonitor struct {
	tree     []zabbix.Service
	treeErr  error
	triggers map[string]zabbix.Trigger
}

func (f *fakeMonitor) ServiceTree(_ context.Context, _ string) ([]zabbix.Service, error) {
	return f.tree, f.treeErr
}

func (f *fakeMonitor) Trigger(_ context.Context, id string) (zabbix.Trigger, error) {
	t, ok := f.triggers[id]
	if !ok {
		return zabbix.Trigger{}, fmt.Errorf("trigger %s; %w", id, zabbix.ErrNotFound)
	}
	return t, nil
}

type fakePage struct {
	groups     []cachet.Group
	components []cachet.Component
	nextID     int

	groupCreates     int
	componentCreates int
	findErr          error
}

func (f *fakePage) id() int {
	f.nextID++
	return f.nextID
}

func (f *fakePage) FindGroupByName(_ context.Context, name string) (cachet.Group, error) {
	for _, g := range f.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return cachet.Group{}, cachet.ErrNotFound
}

func (f *fakePage) CreateGroup(_ context.Context, name string) (cachet.Group, error) {
	f.groupCreates++
	g := cachet.Group{ID: f.id(), Name: name, Collapsed: 2}
	f.groups = append(f.groups, g)
	return g, nil
}

func (f *fakePage) FindComponentByName(_ context.Context, name string, groupID int) (cachet.Component, error) {
	if f.findErr != nil {
		return cachet.Component{}, f.findErr
	}
	for _, c := range f.components {
		if c.Name == name && c.GroupID == groupID {
			return c, nil
		}
	}
	return cachet.Component{}, cachet.ErrNotFound
}

func (f *fakePage) CreateComponent(_ context.Context, nc cachet.NewComponent) (cachet.Component, error) {
	f.componentCreates++
	c := cachet.Component{
		ID:          f.id(),
		Name:        nc.Name,
		Description: nc.Description,
		Link:        nc.Link,
		GroupID:     nc.GroupID,
		Status:      cachet.ComponentOperational,
	}
	f.components = append(f.components, c)
	return c, nil
}

func sampleMonitor() *fakeMonitor {
	return &fakeMonitor{
		tree: []zabbix.Service{
			{
				ID:   "10",
				Name: "Website",
				Children: []zabbix.Service{
					{ID: "11", Name: "Frontend", TriggerID: "100"},
					{ID: "12", Name: "Checkout", TriggerID: zabbix.NoTrigger},
				},
			},
			{ID: "20", Name: "DNS", TriggerID: "200"},
			{ID: "30", Name: "Placeholder", TriggerID: zabbix.NoTrigger},
		},
		triggers: map[string]zabbix.Trigger{
			"100": {ID: "100", Description: "Frontend is down", URL: "https://example.com"},
			"200": {ID: "200", Description: "DNS lookup failed"},
		},
	}
}

func TestSync_BuildsMappings(t *testing.T) {
	page := &fakePage{}
	sync := NewSynchronizer(sampleMonitor(), page, "Cachet")

	snap, err := sync.Sync(context.Background())
	require.NoError(t, err)

	require.Len(t, snap, 3)
	group := page.groups[0]
	assert.Equal(t, "Website", group.Name)

	assert.Equal(t, Mapping{
		TriggerID:     "100",
		GroupID:       group.ID,
		GroupName:     "Website",
		ComponentID:   snap[0].ComponentID,
		ComponentName: "Frontend",
	}, snap[0])
	assert.True(t, snap[0].TriggerKeyed())

	assert.Equal(t, "12", snap[1].ServiceID)
	assert.False(t, snap[1].TriggerKeyed())
	assert.Equal(t, group.ID, snap[1].GroupID)

	assert.Equal(t, "200", snap[2].TriggerID)
	assert.False(t, snap[2].Grouped())
	assert.Equal(t, "DNS", snap[2].ComponentName)

	assert.Equal(t, 2, snap.TriggerKeyed())

	// Trigger fields carried onto the component
	frontend := page.components[0]
	assert.Equal(t, "Frontend is down", frontend.Description)
	assert.Equal(t, "https://example.com", frontend.Link)
}

func TestSync_IdempotentResync(t *testing.T) {
	page := &fakePage{}
	sync := NewSynchronizer(sampleMonitor(), page, "Cachet")

	first, err := sync.Sync(context.Background())
	require.NoError(t, err)
	groups, components := page.groupCreates, page.componentCreates

	second, err := sync.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Equal(second), "re-sync should yield an equal snapshot")
	assert.Equal(t, groups, page.groupCreates, "re-sync must not create groups")
	assert.Equal(t, components, page.componentCreates, "re-sync must not create components")
}

func TestSync_ReusesExistingEntities(t *testing.T) {
	page := &fakePage{
		groups:     []cachet.Group{{ID: 5, Name: "Website"}},
		components: []cachet.Component{{ID: 6, Name: "Frontend", GroupID: 5}, {ID: 7, Name: "Frontend"}},
		nextID:     100,
	}
	sync := NewSynchronizer(sampleMonitor(), page, "")

	snap, err := sync.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, page.groupCreates)
	assert.Equal(t, 6, snap[0].ComponentID, "component reused by name within its group")
	// Checkout and DNS are new
	assert.Equal(t, 2, page.componentCreates)
}

func TestSync_DropsDuplicateComponents(t *testing.T) {
	mon := &fakeMonitor{
		tree: []zabbix.Service{{
			ID:   "1",
			Name: "API",
			Children: []zabbix.Service{
				{ID: "2", Name: "Gateway", TriggerID: "7"},
				{ID: "3", Name: "Gateway", TriggerID: "8"},
			},
		}},
		triggers: map[string]zabbix.Trigger{"7": {ID: "7"}, "8": {ID: "8"}},
	}
	page := &fakePage{}

	snap, err := NewSynchronizer(mon, page, "").Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "7", snap[0].TriggerID)
}

func TestSync_EmptyTreeIsMisconfigured(t *testing.T) {
	mon := &fakeMonitor{tree: []zabbix.Service{{ID: "1", Name: "Lonely", TriggerID: zabbix.NoTrigger}}}

	_, err := NewSynchronizer(mon, &fakePage{}, "Cachet").Sync(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoConditions)
	assert.True(t, config.IsMisconfigured(err))
}

func TestSync_UnknownRootIsMisconfigured(t *testing.T) {
	mon := &fakeMonitor{treeErr: fmt.Errorf("root service %q; %w", "Nope", zabbix.ErrNotFound)}

	_, err := NewSynchronizer(mon, &fakePage{}, "Nope").Sync(context.Background())
	require.Error(t, err)
	assert.True(t, config.IsMisconfigured(err))
}

func TestSync_TransientErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("service tree", func(t *testing.T) {
		_, err := NewSynchronizer(&fakeMonitor{treeErr: boom}, &fakePage{}, "").Sync(context.Background())
		require.ErrorIs(t, err, boom)
		assert.False(t, config.IsMisconfigured(err))
	})

	t.Run("component lookup", func(t *testing.T) {
		page := &fakePage{findErr: boom}
		_, err := NewSynchronizer(sampleMonitor(), page, "").Sync(context.Background())
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 0, page.componentCreates)
	})
}

func TestSnapshot_EqualAndClone(t *testing.T) {
	a := Snapshot{{TriggerID: "1", ComponentID: 1}, {TriggerID: "2", ComponentID: 2}}
	b := a.Clone()

	assert.True(t, a.Equal(b))
	b[1].ComponentID = 3
	assert.False(t, a.Equal(b))
	assert.Equal(t, 2, a[1].ComponentID, "clone must not alias the original")

	assert.False(t, a.Equal(a[:1]))
	assert.True(t, Snapshot(nil).Equal(Snapshot{}))
}
