package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
)

// ComponentSupervisor runs long-lived components in their own goroutines,
// restarts them with exponential backoff and reports fatal failures.
// A failure in one component never stops another.
type ComponentSupervisor struct {
	componentCancels map[string]context.CancelFunc
	healthUpdater    HealthUpdater
	logger           *slog.Logger
	minBackoff       time.Duration
	maxBackoff       time.Duration
	fatal            chan error
	wg               sync.WaitGroup
	mu               sync.Mutex
}

// SupervisorOption configures ComponentSupervisor.
type SupervisorOption func(*ComponentSupervisor)

// WithSupervisorLogger sets the logger for supervision.
func WithSupervisorLogger(l *slog.Logger) SupervisorOption {
	return func(s *ComponentSupervisor) {
		s.logger = l
	}
}

// WithBackoff sets the min and max restart backoff durations.
func WithBackoff(minBackoff, maxBackoff time.Duration) SupervisorOption {
	return func(s *ComponentSupervisor) {
		s.minBackoff = minBackoff
		s.maxBackoff = maxBackoff
	}
}

// NewComponentSupervisor creates a new supervisor.
func NewComponentSupervisor(healthUpdater HealthUpdater, opts ...SupervisorOption) *ComponentSupervisor {
	s := &ComponentSupervisor{
		componentCancels: make(map[string]context.CancelFunc),
		healthUpdater:    healthUpdater,
		logger:           slog.Default(),
		minBackoff:       defaultMinBackoff,
		maxBackoff:       defaultMaxBackoff,
		fatal:            make(chan error, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fatal delivers the first error that requires the daemon to stop: a
// configuration error from any component, or any failure of a fatal
// component that does not restart.
func (s *ComponentSupervisor) Fatal() <-chan error {
	return s.fatal
}

// Supervise starts run in a goroutine. run should block until ctx is
// cancelled; a nil return before that counts as a clean stop.
func (s *ComponentSupervisor) Supervise(ctx context.Context, def ComponentDefinition, run func(context.Context) error) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if prev, ok := s.componentCancels[def.Name]; ok {
		prev()
	}
	s.componentCancels[def.Name] = cancel
	s.mu.Unlock()

	s.setHealth(def.Name, ComponentHealth{Status: ComponentStatusStarting, LastChecked: time.Now()})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		backoff := s.minBackoff

		for {
			err := run(runCtx)
			now := time.Now()

			if runCtx.Err() != nil {
				s.setHealth(def.Name, ComponentHealth{Status: ComponentStatusStopped, LastChecked: now})
				return
			}

			if err == nil {
				s.logger.Info("component stopped", "component", def.Name)
				s.setHealth(def.Name, ComponentHealth{Status: ComponentStatusStopped, LastChecked: now})
				return
			}

			s.logger.Warn("component failed",
				"component", def.Name,
				"error", err,
			)
			s.setHealth(def.Name, ComponentHealth{
				Status:      ComponentStatusFailed,
				Error:       err.Error(),
				LastChecked: now,
			})

			if def.Stops(err) {
				s.logger.Error("fatal component failure",
					"component", def.Name,
					"error", err,
				)
				s.reportFatal(fmt.Errorf("component %s failed; %w", def.Name, err))
				return
			}
			if def.RestartPolicy == RestartNever {
				return
			}

			s.logger.Info("restarting component", "component", def.Name, "backoff", backoff)
			select {
			case <-runCtx.Done():
				s.setHealth(def.Name, ComponentHealth{Status: ComponentStatusStopped, LastChecked: time.Now()})
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > s.maxBackoff {
				backoff = s.maxBackoff
			}
		}
	}()
}

func (s *ComponentSupervisor) reportFatal(err error) {
	select {
	case s.fatal <- err:
	default:
	}
}

func (s *ComponentSupervisor) setHealth(name string, health ComponentHealth) {
	if s.healthUpdater != nil {
		s.healthUpdater.UpdateComponentHealth(map[string]ComponentHealth{name: health})
	}
}

// Cancel cancels supervision for a specific component.
func (s *ComponentSupervisor) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.componentCancels[name]; ok {
		cancel()
		delete(s.componentCancels, name)
	}
}

// CancelAll cancels all supervised components.
func (s *ComponentSupervisor) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, cancel := range s.componentCancels {
		s.logger.Debug("canceling component", "component", name)
		cancel()
	}
	s.componentCancels = make(map[string]context.CancelFunc)
}

// Wait blocks until every supervised goroutine has returned.
func (s *ComponentSupervisor) Wait() {
	s.wg.Wait()
}

// SupervisedCount returns the number of currently supervised components.
func (s *ComponentSupervisor) SupervisedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.componentCancels)
}
