package servicemanager

import (
	"context"
	"strings"
	"sync"
	"testing"
)

type executedCommand struct {
	name string
	args []string
}

func (c executedCommand) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// mockExecutor records commands and returns canned output keyed by the full
// command line.
type mockExecutor struct {
	mu       sync.Mutex
	commands []executedCommand
	outputs  map[string]string
	errors   map[string]error
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		outputs: make(map[string]string),
		errors:  make(map[string]error),
	}
}

func (m *mockExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cmd := executedCommand{name: name, args: args}
	m.commands = append(m.commands, cmd)
	key := cmd.String()
	return []byte(m.outputs[key]), m.errors[key]
}

func (m *mockExecutor) lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commands))
	for i, c := range m.commands {
		out[i] = c.String()
	}
	return out
}

func TestServiceState_String(t *testing.T) {
	tests := []struct {
		state ServiceState
		want  string
	}{
		{ServiceStateEnabled, "enabled"},
		{ServiceStateDisabled, "disabled"},
		{ServiceStateNotInstalled, "not-installed"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ServiceState.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestGetBinaryPath(t *testing.T) {
	if path := GetBinaryPath(); path == "" {
		t.Error("GetBinaryPath() returned empty string")
	}
}
