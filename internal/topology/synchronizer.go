package topology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leefowlercu/statusmirror/internal/cachet"
	"github.com/leefowlercu/statusmirror/internal/config"
	"github.com/leefowlercu/statusmirror/internal/zabbix"
)

// ErrNoConditions is returned when the service tree yields no mappings.
var ErrNoConditions = errors.New("service tree contains no monitored conditions")

// Monitor is the part of the monitoring system the synchronizer reads.
type Monitor interface {
	ServiceTree(ctx context.Context, root string) ([]zabbix.Service, error)
	Trigger(ctx context.Context, id string) (zabbix.Trigger, error)
}

// StatusPage is the part of the status page the synchronizer writes.
type StatusPage interface {
	FindGroupByName(ctx context.Context, name string) (cachet.Group, error)
	CreateGroup(ctx context.Context, name string) (cachet.Group, error)
	FindComponentByName(ctx context.Context, name string, groupID int) (cachet.Component, error)
	CreateComponent(ctx context.Context, comp cachet.NewComponent) (cachet.Component, error)
}

// Synchronizer mirrors the service tree below a root service onto
// component groups and components.
type Synchronizer struct {
	monitor Monitor
	page    StatusPage
	root    string
	logger  *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the synchronizer logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// NewSynchronizer creates a synchronizer for the tree below root.
// An empty root walks every service.
func NewSynchronizer(monitor Monitor, page StatusPage, root string, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		monitor: monitor,
		page:    page,
		root:    root,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "topology")
	return s
}

// Sync walks the service tree once, ensuring every group and component
// exists, and returns the resulting mappings. Existing entities are reused,
// so a repeated sync over an unchanged tree creates nothing.
func (s *Synchronizer) Sync(ctx context.Context) (Snapshot, error) {
	services, err := s.monitor.ServiceTree(ctx, s.root)
	if err != nil {
		if errors.Is(err, zabbix.ErrNotFound) {
			return nil, fmt.Errorf("root service %q not found; %w", s.root, config.ErrMisconfigured)
		}
		return nil, fmt.Errorf("failed to read service tree; %w", err)
	}

	var snap Snapshot
	seen := make(map[[2]int]bool)
	add := func(m Mapping) {
		key := [2]int{m.GroupID, m.ComponentID}
		if seen[key] {
			s.logger.Warn("duplicate component mapping dropped",
				"group", m.GroupName,
				"component", m.ComponentName,
				"component_id", m.ComponentID,
			)
			return
		}
		seen[key] = true
		snap = append(snap, m)
	}

	for _, svc := range services {
		if len(svc.Children) > 0 {
			mappings, err := s.syncGroup(ctx, svc)
			if err != nil {
				return nil, err
			}
			for _, m := range mappings {
				add(m)
			}
			continue
		}

		if !svc.HasTrigger() {
			s.logger.Debug("service has no trigger or child services; skipped",
				"service", svc.Name,
				"service_id", svc.ID,
			)
			continue
		}

		m, err := s.syncTriggerComponent(ctx, svc, cachet.Group{})
		if err != nil {
			return nil, err
		}
		add(m)
	}

	if len(snap) == 0 {
		return nil, fmt.Errorf("root %q: %w; %w", s.root, ErrNoConditions, config.ErrMisconfigured)
	}

	s.logger.Debug("topology synced", "mappings", len(snap))
	return snap, nil
}

func (s *Synchronizer) syncGroup(ctx context.Context, svc zabbix.Service) ([]Mapping, error) {
	group, err := s.ensureGroup(ctx, svc.Name)
	if err != nil {
		return nil, err
	}

	mappings := make([]Mapping, 0, len(svc.Children))
	for _, child := range svc.Children {
		if child.HasTrigger() {
			m, err := s.syncTriggerComponent(ctx, child, group)
			if err != nil {
				return nil, err
			}
			mappings = append(mappings, m)
			continue
		}

		comp, err := s.ensureComponent(ctx, cachet.NewComponent{Name: child.Name, GroupID: group.ID})
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, Mapping{
			ServiceID:     child.ID,
			GroupID:       group.ID,
			GroupName:     group.Name,
			ComponentID:   comp.ID,
			ComponentName: comp.Name,
		})
	}
	return mappings, nil
}

func (s *Synchronizer) syncTriggerComponent(ctx context.Context, svc zabbix.Service, group cachet.Group) (Mapping, error) {
	trigger, err := s.monitor.Trigger(ctx, svc.TriggerID)
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to read trigger %s of service %q; %w", svc.TriggerID, svc.Name, err)
	}

	comp, err := s.ensureComponent(ctx, cachet.NewComponent{
		Name:        svc.Name,
		Description: trigger.Description,
		Link:        trigger.URL,
		GroupID:     group.ID,
	})
	if err != nil {
		return Mapping{}, err
	}

	return Mapping{
		TriggerID:     svc.TriggerID,
		GroupID:       group.ID,
		GroupName:     group.Name,
		ComponentID:   comp.ID,
		ComponentName: comp.Name,
	}, nil
}

func (s *Synchronizer) ensureGroup(ctx context.Context, name string) (cachet.Group, error) {
	group, err := s.page.FindGroupByName(ctx, name)
	if err == nil {
		return group, nil
	}
	if !cachet.IsNotFound(err) {
		return cachet.Group{}, fmt.Errorf("failed to look up component group %q; %w", name, err)
	}

	group, err = s.page.CreateGroup(ctx, name)
	if err != nil {
		return cachet.Group{}, fmt.Errorf("failed to create component group %q; %w", name, err)
	}
	return group, nil
}

func (s *Synchronizer) ensureComponent(ctx context.Context, comp cachet.NewComponent) (cachet.Component, error) {
	existing, err := s.page.FindComponentByName(ctx, comp.Name, comp.GroupID)
	if err == nil {
		return existing, nil
	}
	if !cachet.IsNotFound(err) {
		return cachet.Component{}, fmt.Errorf("failed to look up component %q; %w", comp.Name, err)
	}

	created, err := s.page.CreateComponent(ctx, comp)
	if err != nil {
		return cachet.Component{}, fmt.Errorf("failed to create component %q; %w", comp.Name, err)
	}
	return created, nil
}
